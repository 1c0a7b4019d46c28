package services

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"task-tracker/internal/errors"
)

const (
	tracerName = "task-tracker/services"
	spanPrefix = "tasks."

	attrOpID     = attribute.Key("tk.op_id")
	attrTaskID   = attribute.Key("tk.task_id")
	attrActionID = attribute.Key("tk.action_id")
	attrCategory = attribute.Key("tk.category")
)

// operation carries the span and log entry of one logical operation.
type operation struct {
	name     string
	mutating bool
	span     trace.Span
	entry    *log.Entry
	actionID int64
}

func (s *OperationService) begin(ctx context.Context, name string, mutating bool) (context.Context, *operation) {
	opID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, spanPrefix+name, trace.WithAttributes(attrOpID.String(opID)))
	return ctx, &operation{
		name:     name,
		mutating: mutating,
		span:     span,
		entry:    s.logger.WithFields(log.Fields{"op": name, "op_id": opID}),
	}
}

func (o *operation) setTask(id int64) {
	o.span.SetAttributes(attrTaskID.Int64(id))
	o.entry = o.entry.WithField("task_id", id)
}

func (o *operation) setAction(id int64) {
	o.actionID = id
	o.span.SetAttributes(attrActionID.Int64(id))
	o.entry = o.entry.WithField("action_id", id)
}

func (o *operation) setCategory(category string) {
	o.span.SetAttributes(attrCategory.String(category))
	o.entry = o.entry.WithField("category", category)
}

// end closes the span and logs the outcome. It returns err unchanged.
func (o *operation) end(err error) error {
	defer o.span.End()

	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
		entry := o.entry.WithError(err).WithField("error_code", errors.GetErrorCode(err))
		if errors.ShouldLogError(err) {
			entry.Error("operation failed")
		} else {
			entry.Warn("operation rejected")
		}
		return err
	}

	o.span.SetStatus(codes.Ok, "")
	if o.mutating {
		o.entry.Info("operation applied")
	} else {
		o.entry.Debug("operation completed")
	}
	return nil
}
