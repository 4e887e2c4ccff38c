package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

// RollbarOptions configures error reporting to Rollbar.
type RollbarOptions struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

// reporter is the subset of the rollbar client used by the hook.
type reporter interface {
	Log(level string, interfaces ...interface{})
}

type rollbarClient struct{}

func (rollbarClient) Log(level string, interfaces ...interface{}) {
	rollbar.Log(level, interfaces...)
}

// RollbarHook forwards error-level log events to Rollbar.
type RollbarHook struct {
	client reporter
}

// Run implements zerolog.Hook.
func (h RollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		h.client.Log(rollbar.ERR, msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		h.client.Log(rollbar.CRIT, msg)
	}
}

// WithRollbar configures the global rollbar client and attaches the hook.
// An empty token leaves the logger untouched.
func WithRollbar(log zerolog.Logger, opts RollbarOptions) zerolog.Logger {
	if opts.Token == "" {
		return log
	}

	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Environment)
	rollbar.SetCodeVersion(opts.CodeVersion)
	if opts.ServerHost != "" {
		rollbar.SetServerHost(opts.ServerHost)
	}

	log.Info().Str("environment", opts.Environment).Msg("Rollbar error reporting enabled")
	return log.Hook(RollbarHook{client: rollbarClient{}})
}

// Flush blocks until queued Rollbar items are sent.
func Flush() {
	rollbar.Wait()
}
