package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowTrigger starts executions of one Cloud Workflow.
type WorkflowTrigger struct {
	client *executions.Client
	parent string
}

func NewWorkflowTrigger(ctx context.Context, projectID, location, workflowID string) (*WorkflowTrigger, error) {
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowTrigger{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// Trigger starts an execution with payload marshalled as its JSON argument.
func (t *WorkflowTrigger) Trigger(ctx context.Context, payload any) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: t.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	exec, err := t.client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

func (t *WorkflowTrigger) Close() error {
	return t.client.Close()
}
