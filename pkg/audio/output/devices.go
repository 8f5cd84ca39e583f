// ABOUTME: Audio device enumeration via malgo
// ABOUTME: Lists capture/playback devices and resolves device names to IDs
package output

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// Device describes one audio endpoint
type Device struct {
	Name     string
	ID       string
	Default  bool
	Playback bool // false for capture devices
}

// ListDevices returns all capture and playback devices known to miniaudio
func ListDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	var devices []Device
	for _, kind := range []malgo.DeviceType{malgo.Capture, malgo.Playback} {
		infos, err := ctx.Devices(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate devices: %w", err)
		}
		for i := range infos {
			// skip the discard/null device
			if strings.Contains(infos[i].Name(), "Discard all samples") {
				continue
			}
			devices = append(devices, Device{
				Name:     infos[i].Name(),
				ID:       infos[i].ID.String(),
				Default:  infos[i].IsDefault == 1,
				Playback: kind == malgo.Playback,
			})
		}
	}
	return devices, nil
}

// FindDevice resolves a device name for the given direction. An empty name
// or "default" yields nil, which selects the system default. Names match
// exactly first, then by case-insensitive substring.
func FindDevice(ctx *malgo.AllocatedContext, kind malgo.DeviceType, name string) (unsafe.Pointer, error) {
	if name == "" || name == "default" {
		return nil, nil
	}

	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for i := range infos {
		if infos[i].Name() == name || infos[i].ID.String() == name {
			return infos[i].ID.Pointer(), nil
		}
	}
	lower := strings.ToLower(name)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), lower) {
			return infos[i].ID.Pointer(), nil
		}
	}
	return nil, fmt.Errorf("audio device %q not found", name)
}
