package updater

import (
	"crypto"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/minio/selfupdate"
	"github.com/rs/zerolog/log"
)

// RelaunchDelayFlag is the hidden flag the relaunched process receives so it
// waits for the old one to release the single-instance lock.
const RelaunchDelayFlag = "relaunch-delay"

// BinaryInstaller swaps the running executable for a downloaded one.
type BinaryInstaller struct {
	// Args are passed to the relaunched process.
	Args []string
	// Delay is forwarded through RelaunchDelayFlag.
	Delay time.Duration
}

// Apply verifies the file at path against checksum and replaces the
// running executable with it, rolling back on failure.
func (b BinaryInstaller) Apply(path string, checksum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open update: %w", err)
	}
	defer f.Close()

	err = selfupdate.Apply(f, selfupdate.Options{
		Hash:     crypto.SHA512,
		Checksum: checksum,
	})
	if err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			log.Error().Err(rerr).Msg("update rollback failed")
		}
		return fmt.Errorf("apply update: %w", err)
	}
	return nil
}

// Restart launches the (now replaced) executable as a detached process.
func (b BinaryInstaller) Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	args := append([]string{}, b.Args...)
	if b.Delay > 0 {
		args = append(args, fmt.Sprintf("--%s=%s", RelaunchDelayFlag, b.Delay))
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	log.Info().Int("pid", cmd.Process.Pid).Msg("relaunched after update")
	return cmd.Process.Release()
}
