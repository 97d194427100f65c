package models

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"

	modelcb "github.com/dohr-michael/sidekick/internal/callbacks"
	"github.com/dohr-michael/sidekick/internal/conversation"
)

var logHandler = modelcb.NewLoggingHandler(nil)

// withCallbacks attaches the logging handler for one call to the named model.
// eino components report to it themselves.
func withCallbacks(ctx context.Context, name string) context.Context {
	return modelcb.WithModel(ctx, name, logHandler)
}

// instrument reports a native SDK call through the same callbacks the eino
// components use.
func instrument(name, system string, turns []conversation.Turn, produce Producer) Producer {
	return func(ctx context.Context, emit func(string) bool) error {
		ctx = withCallbacks(ctx, name)
		ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: toSchemaMessages(system, turns)})

		if err := produce(ctx, emit); err != nil {
			callbacks.OnError(ctx, err)
			return err
		}
		callbacks.OnEnd(ctx, &model.CallbackOutput{})
		return nil
	}
}
