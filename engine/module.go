package engine

import (
	"context"
	"time"

	Logger "github.com/geomux/geomux/utils/log"
)

const (
	GracefulRetryDelay = 3 * time.Second
)

// RunModuleWithGracefulRestart keeps restarting the module whenever it exits
// with an error. A nil return means the module finished on its own (usually
// because the root context was canceled) and should not be restarted.
func RunModuleWithGracefulRestart(ctx context.Context, module *Module) {
	for {
		err := (*module).RunModule(ctx)
		if err == nil {
			break
		}
		Logger.Log.Errorf(
			"Module %s exited with error %v, retry in %v",
			(*module).Name(),
			err,
			GracefulRetryDelay)

		// Wait for a small amount of time and restart.
		select {
		case <-ctx.Done():
			return
		case <-time.After(GracefulRetryDelay):
		}
	}
}

type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance. Note
	// that if there are multiple instances of the same module, each instance
	// should have a unique name instead of using the same name.
	Name() string

	// Release any resource held by the module. Called exactly once during
	// engine shutdown, after the root context has been canceled.
	Shutdown()
}
