// Command ipcserver is the process-startup wrapper described in
// SPEC_FULL.md §4.H / spec.md §6: it sources configuration from
// command-line arguments of the form NAME=value and from environment
// variables (argument wins), builds the immutable server
// configuration, and runs the router until terminated.
package main

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/definition"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/server"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// recognizedNames are the only NAME=value / environment keys the
// wrapper understands. Anything else on the command line is ignored.
var recognizedNames = []string{
	"HOST", "PORT", "SSL", "KEY_PATH", "CERT_PATH", "PFX_PATH",
	"PASSPHRASE", "TOKEN", "MAX_PAYLOAD", "DEV_MODE",
}

func main() {
	log := definition.NewDefaultLogger(logrus.Fields{"component": "ipcserver"})

	values := sourceValues(os.Args[1:], os.Environ())
	cfg, err := buildConfig(values)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	srv := server.New(cfg, log)
	if err := srv.Start(); err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	announceReadiness(log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Infof("shutting down")
	srv.Stop()
	<-srv.Done()
}

// sourceValues resolves each recognized name from the environment
// first, then overrides it with a matching NAME=value command-line
// argument (argument wins).
func sourceValues(args, env []string) map[string]string {
	values := make(map[string]string)

	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if isRecognized(strings.ToUpper(k)) {
			values[strings.ToUpper(k)] = v
		}
	}

	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		if isRecognized(strings.ToUpper(k)) {
			values[strings.ToUpper(k)] = v
		}
	}

	return values
}

func isRecognized(name string) bool {
	for _, n := range recognizedNames {
		if n == name {
			return true
		}
	}
	return false
}

func buildConfig(values map[string]string) (types.Config, error) {
	port, _ := strconv.Atoi(values["PORT"])
	maxPayload, _ := strconv.Atoi(values["MAX_PAYLOAD"])

	cfg := types.Config{
		Port:       port,
		Host:       values["HOST"],
		MaxPayload: maxPayload,
		Token:      values["TOKEN"],
		DevMode:    values["DEV_MODE"] == "1",
		SSL: types.SSLConfig{
			CertPath:   values["CERT_PATH"],
			KeyPath:    values["KEY_PATH"],
			PfxPath:    values["PFX_PATH"],
			Passphrase: values["PASSPHRASE"],
		},
	}
	if values["SSL"] != "1" {
		cfg.SSL = types.SSLConfig{}
	}

	return types.NewConfig(cfg)
}

// announceReadiness logs a distinct "supervised, ready" event when
// the process was launched under PM2 (NODE_APP_INSTANCE or pm_id
// present in the environment). A standalone Go binary has no
// process-manager IPC channel to signal over, so this is the
// documented resolution of that otherwise-undefined cross-runtime
// behavior (SPEC_FULL.md §4.H).
func announceReadiness(log types.Logger) {
	_, instance := os.LookupEnv("NODE_APP_INSTANCE")
	_, pmID := os.LookupEnv("pm_id")
	if instance || pmID {
		log.Infof("supervised, ready")
		return
	}
	log.Infof("ready")
}
