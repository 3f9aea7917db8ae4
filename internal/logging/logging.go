package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup настраивает zerolog для процесса и возвращает логгер.
// format "json" пишет сырой JSON, иначе — человекочитаемый вывод.
func Setup(level, format string) zerolog.Logger {
	return SetupWithWriter(level, format, os.Stderr)
}

func SetupWithWriter(level, format string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = out
	if format != "json" {
		writer = zerolog.ConsoleWriter{Out: out, NoColor: true}
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(lvl)
	log.Logger = logger
	return logger
}
