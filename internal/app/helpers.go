package app

import (
	"log"

	logging "github.com/ipfs/go-log/v2"
)

// setLogLevels applies level to every goopedit/* subsystem logger.
func setLogLevels(level string) error {
	return logging.SetLogLevelRegex("goopedit/.*", level)
}

func logBanner(dir, cfgPath string) {
	log.Println("────────────────────────────────────────")
	log.Println("goopedit workspace")
	log.Printf(" Workspace dir : %s", dir)
	log.Printf(" Config file   : %s", cfgPath)
	log.Println("────────────────────────────────────────")
}
