package server

import (
	"log"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// StartPprofServer serves pprof on a separate port, meant for internal
// access only.
func StartPprofServer(addr string) {
	pprofRouter := gin.New()
	pprof.Register(pprofRouter)

	go func() {
		log.Printf("Starting pprof server on %s", addr)
		if err := pprofRouter.Run(addr); err != nil {
			log.Fatalf("Failed to start pprof server: %v", err)
		}
	}()
}
