package webhook

import (
	"errors"

	"github.com/dtorcivia/flowdash/internal/config"
)

// Operation is a logical workflow trigger bound to at most one webhook URL.
type Operation string

// Known operations.
const (
	OpCreateIdea   Operation = config.OperationCreateIdea
	OpCreatePrompt Operation = config.OperationCreatePrompt
	OpCreateImage  Operation = config.OperationCreateImage
	OpCreatePost   Operation = config.OperationCreatePost
	OpWebhook      Operation = config.OperationWebhook
)

// ErrUnknownOperation is returned for names outside the fixed operation set.
var ErrUnknownOperation = errors.New("unknown operation")

// Operations returns every known operation in display order.
func Operations() []Operation {
	ops := make([]Operation, 0, len(config.OperationNames))
	for _, name := range config.OperationNames {
		ops = append(ops, Operation(name))
	}
	return ops
}

// ParseOperation validates an operation name.
func ParseOperation(name string) (Operation, error) {
	for _, op := range Operations() {
		if string(op) == name {
			return op, nil
		}
	}
	return "", ErrUnknownOperation
}

// Method returns the HTTP method used to call the operation's webhook.
func (o Operation) Method() string {
	if o == OpCreateIdea {
		return "POST"
	}
	return "GET"
}

// RequiresPayload reports whether the operation sends a JSON body.
func (o Operation) RequiresPayload() bool {
	return o == OpCreateIdea
}
