package aot

import (
	"github.com/rs/zerolog"
)

var (
	Logger = zerolog.Nop()
)
