package main

import (
	"os"

	"github.com/leapzhao/json-docstore/cli"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// 配置加载前的默认日志
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("docstore failed")
	}
}
