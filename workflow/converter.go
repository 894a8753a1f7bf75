package workflow

import (
	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/contextvalue"
)

type (
	Converter = converter.Converter
	Payload   = payload.Payload
)

var DefaultConverter = converter.DefaultConverter

func WithConverter(ctx Context, c Converter) Context {
	return contextvalue.WithConverter(ctx, c)
}

func GetConverter(ctx Context) Converter {
	return contextvalue.Converter(ctx)
}
