package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

type StepID string

const (
	StepGenerateServerKeys StepID = "setup.generate_server_keys"
	StepPersistServerKeys  StepID = "setup.persist_server_keys"
	StepDiscoverInterface  StepID = "setup.discover_interface"
	StepRenderServerConf   StepID = "setup.render_server_conf"
	StepPersistServerConf  StepID = "setup.persist_server_conf"
	StepEnableForwarding   StepID = "setup.enable_forwarding"
	StepReloadSysctl       StepID = "setup.reload_sysctl"
	StepEnableAtBoot       StepID = "setup.enable_at_boot"
	StepFixPermissions     StepID = "setup.fix_permissions"

	StepValidateEndpoint   StepID = "client.validate_endpoint"
	StepLoadServerKey      StepID = "client.load_server_key"
	StepGenerateClientKey  StepID = "client.generate_key"
	StepDeriveClientPublic StepID = "client.derive_public_key"
	StepChooseName         StepID = "client.choose_name"
	StepAcquireLock        StepID = "client.acquire_lock"
	StepReadPeerCount      StepID = "client.read_peer_count"
	StepAllocateAddress    StepID = "client.allocate_address"
	StepRenderClientConf   StepID = "client.render_conf"
	StepPersistClientConf  StepID = "client.persist_conf"
	StepRegisterLivePeer   StepID = "client.register_live_peer"
	StepExportQR           StepID = "client.export_qr"
)

type StepDef struct {
	ID    StepID
	Label string
}

func SetupStepDefinitions() []StepDef {
	return []StepDef{
		{ID: StepGenerateServerKeys, Label: "Generate server keypair"},
		{ID: StepPersistServerKeys, Label: "Write server key files"},
		{ID: StepDiscoverInterface, Label: "Discover default interface"},
		{ID: StepRenderServerConf, Label: "Render server config"},
		{ID: StepPersistServerConf, Label: "Write server config"},
		{ID: StepEnableForwarding, Label: "Enable IPv4 forwarding"},
		{ID: StepReloadSysctl, Label: "Reload sysctl"},
		{ID: StepEnableAtBoot, Label: "Enable tunnel at boot"},
		{ID: StepFixPermissions, Label: "Fix config ownership and permissions"},
	}
}

func AddClientStepDefinitions() []StepDef {
	return []StepDef{
		{ID: StepValidateEndpoint, Label: "Validate endpoint"},
		{ID: StepLoadServerKey, Label: "Load server public key"},
		{ID: StepGenerateClientKey, Label: "Generate client private key"},
		{ID: StepDeriveClientPublic, Label: "Derive client public key"},
		{ID: StepChooseName, Label: "Choose client name"},
		{ID: StepAcquireLock, Label: "Lock peer allocation"},
		{ID: StepReadPeerCount, Label: "Read live peer count"},
		{ID: StepAllocateAddress, Label: "Allocate client address"},
		{ID: StepRenderClientConf, Label: "Render client config"},
		{ID: StepPersistClientConf, Label: "Write client config"},
		{ID: StepRegisterLivePeer, Label: "Register peer on live interface"},
		{ID: StepExportQR, Label: "Export client QR code"},
	}
}

func ValidateStepDefinitions(defs []StepDef) error {
	if len(defs) == 0 {
		return errors.New("empty step definitions")
	}
	seenIDs := map[StepID]struct{}{}
	for i, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("step %d has empty id", i)
		}
		if def.Label == "" {
			return fmt.Errorf("step %q has empty label", def.ID)
		}
		if _, ok := seenIDs[def.ID]; ok {
			return fmt.Errorf("duplicate step id: %q", def.ID)
		}
		seenIDs[def.ID] = struct{}{}
	}
	return nil
}

// StepError names the step a workflow stopped at.
type StepError struct {
	Step  StepID
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type stepExecutor[S any] func(ctx context.Context, st *S) error

// runChain runs every step of defs in order and stops at the first failure.
// Steps that already ran are not undone.
func runChain[S any](ctx context.Context, logger logr.Logger, defs []StepDef, executors map[StepID]stepExecutor[S], st *S) error {
	if err := validateRegistry(defs, executors); err != nil {
		return err
	}

	for i, def := range defs {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: def.ID, Label: def.Label, Err: err}
		}
		logger.V(1).Info("step", "n", i+1, "of", len(defs), "id", def.ID)
		if err := executors[def.ID](ctx, st); err != nil {
			logger.V(1).Info("step failed", "id", def.ID, "error", err.Error())
			return &StepError{Step: def.ID, Label: def.Label, Err: err}
		}
	}
	return nil
}

func validateRegistry[S any](defs []StepDef, executors map[StepID]stepExecutor[S]) error {
	if err := ValidateStepDefinitions(defs); err != nil {
		return err
	}
	for _, def := range defs {
		if _, ok := executors[def.ID]; !ok {
			return fmt.Errorf("missing executor for step ID: %q", def.ID)
		}
	}
	if len(executors) != len(defs) {
		return errors.New("executor without step definition")
	}
	return nil
}
