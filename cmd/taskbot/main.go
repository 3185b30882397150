package main

import (
	"log"

	"github.com/m3rciful/taskbot/bot"
	"github.com/m3rciful/taskbot/core/buildinfo"
	corecmd "github.com/m3rciful/taskbot/core/cmd"
)

func main() {
	log.Printf("taskbot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(cfg.(*bot.Config))
		},
	})
	if err != nil {
		log.Fatalf("taskbot: %v", err)
	}
}
