package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 把 watermill 的日志接到服务的 zerolog 上.
type zerologAdapter struct {
	l *zerolog.Logger
}

func (z *zerologAdapter) emit(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	ev.Msg(msg)
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.emit(z.l.Error().Err(err), msg, fields)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	z.emit(z.l.Info(), msg, fields)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	z.emit(z.l.Debug(), msg, fields)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	z.emit(z.l.Trace(), msg, fields)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	builder := z.l.With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}

	child := builder.Logger()

	return &zerologAdapter{l: &child}
}

func (z *zerologAdapter) String() string { return "zerolog-watermill adapter" }
