// systemd unit enablement over the system bus
package dbusclient

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/godbus/dbus/v5"

	"roadguard/models"
)

const (
	wireguardServiceFormat = "wg-quick@%s.service"

	systemdDest = "org.freedesktop.systemd1"
	systemdPath = "/org/freedesktop/systemd1"
)

// refer: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.systemd1.html

/**
EnableUnitFiles(in  as files,
                in  b runtime,
                in  b force,
                out b carries_install_info,
                out a(sss) changes);
*/

type Changes struct {
	TypeOfChange string
	FileName     string
	Destination  string
}

type CarriesInstallInfo bool

type SystemdManager struct {
	logger  logr.Logger
	connect func() (*dbus.Conn, error)
}

func NewSystemdManager(logger logr.Logger) *SystemdManager {
	return &SystemdManager{logger: logger, connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }}
}

// EnableService enables wg-quick@<intrfc> for boot, like `systemctl enable`.
func (d *SystemdManager) EnableService(ctx context.Context, intrfc string) error {
	service := fmt.Sprintf(wireguardServiceFormat, intrfc)

	conn, err := d.connect()
	if err != nil {
		return fmt.Errorf("%w: connecting to system bus: %w", models.ErrProcessExecution, err)
	}
	defer conn.Close()
	obj := conn.Object(systemdDest, systemdPath)

	var carriesInstallInfo CarriesInstallInfo
	var changes []Changes

	call := obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.EnableUnitFiles", 0, []string{service}, false, false)
	if call.Err != nil {
		return fmt.Errorf("%w: enabling %s: %w", models.ErrProcessExecution, service, call.Err)
	}
	if err := call.Store(&carriesInstallInfo, &changes); err != nil {
		return fmt.Errorf("%w: enabling %s: %w", models.ErrProcessExecution, service, err)
	}

	if len(changes) == 0 {
		d.logger.Info("service is already previously enabled", "service", service)
		return nil
	}
	d.logger.Info("service enabled", "file", changes[0].FileName, "dest", changes[0].Destination)

	// same as the daemon-reload systemctl does after enable
	if call := obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.Reload", 0); call.Err != nil {
		return fmt.Errorf("%w: reloading systemd: %w", models.ErrProcessExecution, call.Err)
	}
	return nil
}
