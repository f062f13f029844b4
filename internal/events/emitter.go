package events

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var Emit = func(ctx context.Context, name string, evt SettingsEvent) {}

// EnableRuntimeEmitter forwards events to the Wails frontend. ctx must be the
// context handed to OnStartup.
func EnableRuntimeEmitter() {
	Emit = func(ctx context.Context, name string, evt SettingsEvent) {
		if evt.Type != EventInfo {
			runtime.EventsEmit(ctx, name, evt)
		}

		logRuntimeEvent(ctx, name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt SettingsEvent)) {
	if f == nil {
		Emit = func(context.Context, string, SettingsEvent) {}
		return
	}
	Emit = f
}
