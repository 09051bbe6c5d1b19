package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/typeutil"
)

// Metadata keys used to track workflow progress on a message.
const (
	MetaWorkflowID = "WorkflowId"
	MetaStageIndex = "StageIndex"
)

// StageCondition decides whether a stage should run given the previous
// stage's result. A nil condition always runs.
type StageCondition func(result *message.Result) bool

// WorkflowStage is one step in a workflow: the agent that handles it and an
// optional gate on the previous result.
type WorkflowStage struct {
	Name      string
	AgentID   string
	Condition StageCondition
}

// Workflow is a named ordered sequence of stages.
type Workflow struct {
	Name   string
	Stages []WorkflowStage
}

// WorkflowMiddleware chains messages through multi-stage workflows.
//
// A message participates in a workflow when its metadata carries a known
// WorkflowId; StageIndex (default 0) selects the current stage. After a
// successful downstream result on a non-final stage, the middleware attaches
// a forwarded message addressed to the next stage's agent. Forwarded
// messages are handed back on the Result; dispatching them is the caller's
// responsibility.
//
// Messages with an unknown workflow id or an out-of-range stage index pass
// through untouched.
type WorkflowMiddleware struct {
	mu        sync.RWMutex
	workflows map[string]Workflow
}

// NewWorkflowMiddleware creates a middleware with no workflows.
func NewWorkflowMiddleware() *WorkflowMiddleware {
	return &WorkflowMiddleware{workflows: make(map[string]Workflow)}
}

// RegisterWorkflow adds or replaces a workflow under its name.
func (m *WorkflowMiddleware) RegisterWorkflow(wf Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[wf.Name] = wf
}

// Process implements the Middleware interface.
func (m *WorkflowMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	workflowID, _ := msg.Meta(MetaWorkflowID)
	name := typeutil.AsStringDefault(workflowID, "")
	if name == "" {
		return next(ctx, msg)
	}

	m.mu.RLock()
	wf, known := m.workflows[name]
	m.mu.RUnlock()
	if !known {
		return next(ctx, msg)
	}

	stageRaw, _ := msg.Meta(MetaStageIndex)
	stageIndex := typeutil.CoerceIntDefault(stageRaw, 0)
	if stageIndex < 0 || stageIndex >= len(wf.Stages) {
		return next(ctx, msg)
	}

	result, err := next(ctx, msg)
	if err != nil || result == nil || !result.Success {
		return result, err
	}

	nextIndex := stageIndex + 1
	if nextIndex >= len(wf.Stages) {
		return result, nil
	}

	nextStage := wf.Stages[nextIndex]
	if nextStage.Condition != nil && !nextStage.Condition(result) {
		return result, nil
	}

	result.Forward(m.buildStageMessage(msg, result, name, nextIndex, nextStage))
	return result, nil
}

// buildStageMessage constructs the message for the next workflow stage. The
// sender is the agent that just completed the current stage; the content
// carries the stage's response forward when there is one.
func (m *WorkflowMiddleware) buildStageMessage(msg *message.Message, result *message.Result, workflowName string, nextIndex int, stage WorkflowStage) *message.Message {
	content := msg.Content
	if result.Response != "" {
		content = result.Response
	}

	forwarded := message.New(msg.ReceiverID,
		fmt.Sprintf("Workflow %s - Stage %d", workflowName, nextIndex+1),
		content,
		message.WithReceiver(stage.AgentID),
		message.WithCategory(msg.Category),
		message.WithConversationID(msg.ConversationID),
	)

	for k, v := range msg.MetadataSnapshot() {
		forwarded.SetMeta(k, v)
	}
	forwarded.SetMeta(MetaWorkflowID, workflowName)
	forwarded.SetMeta(MetaStageIndex, nextIndex)

	return forwarded
}

var _ Middleware = (*WorkflowMiddleware)(nil)
