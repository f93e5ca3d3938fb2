package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	AttrCommand     = attribute.Key("otp.command")
	AttrRunID       = attribute.Key("otp.run_id")
	AttrOperatorID  = attribute.Key("otp.fusion.operator")
	AttrInputCount  = attribute.Key("otp.fusion.input_count")
	AttrSealed      = attribute.Key("otp.conformance.sealed")
	AttrVerified    = attribute.Key("otp.conformance.verified")
	AttrMapperID    = attribute.Key("otp.mapper.id")
	AttrMapperType  = attribute.Key("otp.mapper.type")
	AttrJudgmentID  = attribute.Key("otp.judgment.id")
	AttrOutcomeType = attribute.Key("otp.outcome.type")
)

// CommandOperation identifies one CLI invocation.
func CommandOperation(command, runID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCommand.String(command),
		AttrRunID.String(runID),
	}
}

// FusionOperation describes a fusion call.
func FusionOperation(operatorID string, inputs int, sealed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrOperatorID.String(operatorID),
		AttrInputCount.Int(inputs),
		AttrSealed.Bool(sealed),
	}
}

// VerifyOperation describes a seal verification.
func VerifyOperation(operatorID string, verified bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrOperatorID.String(operatorID),
		AttrVerified.Bool(verified),
	}
}

// MapperOperation describes a mapper application.
func MapperOperation(mapperID, mapperType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrMapperID.String(mapperID),
		AttrMapperType.String(mapperType),
	}
}

// OutcomeOperation describes an outcome recorded against a judgment.
func OutcomeOperation(judgmentID, outcomeType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrJudgmentID.String(judgmentID),
		AttrOutcomeType.String(outcomeType),
	}
}

// AddSpanEvent adds an event to the span in ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
