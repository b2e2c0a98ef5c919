package processor

import (
	"context"
	"fmt"
	"os"

	"roadguard/cmd/roadguard/keys"
	"roadguard/models"
)

type setupState struct {
	identity models.ServerIdentity
	egress   models.NetworkInterface
	conf     string
}

// Setup configures this host as the VPN server. It stops at the first failed
// step; whatever earlier steps wrote stays on disk.
func (p *Processor) Setup(ctx context.Context) error {
	st := &setupState{
		identity: models.ServerIdentity{
			Address:    p.settings.ServerAddress,
			ListenPort: p.settings.ListenPort,
			DNS:        p.settings.DNS,
		},
	}
	executors := map[StepID]stepExecutor[setupState]{
		StepGenerateServerKeys: p.generateServerKeys,
		StepPersistServerKeys:  p.persistServerKeys,
		StepDiscoverInterface:  p.discoverInterface,
		StepRenderServerConf:   p.renderServerConf,
		StepPersistServerConf:  p.persistServerConf,
		StepEnableForwarding:   p.enableForwarding,
		StepReloadSysctl:       p.reloadSysctl,
		StepEnableAtBoot:       p.enableAtBoot,
		StepFixPermissions:     p.fixPermissions,
	}
	if err := runChain(ctx, p.logger, SetupStepDefinitions(), executors, st); err != nil {
		return err
	}

	p.logger.Info("server configured",
		"interface", p.settings.InterfaceName,
		"address", st.identity.Address.String(),
		"egress", st.egress.Name,
		"conf", p.settings.ServerConfPath())
	return nil
}

func (p *Processor) generateServerKeys(ctx context.Context, st *setupState) error {
	kp, err := p.Keys.GenerateKeypair(ctx)
	if err != nil {
		return err
	}
	st.identity.Keypair = kp
	return nil
}

func (p *Processor) persistServerKeys(_ context.Context, st *setupState) error {
	if err := p.Keys.Persist(p.settings.PrivateKeyPath(), []byte(st.identity.Keypair.Private+"\n")); err != nil {
		return err
	}
	return p.Keys.Persist(p.settings.PublicKeyPath(), []byte(st.identity.Keypair.Public+"\n"))
}

func (p *Processor) discoverInterface(ctx context.Context, st *setupState) error {
	iface, err := p.Inspector.DefaultInterface(ctx)
	if err != nil {
		return err
	}
	st.egress = iface
	p.logger.Info("default interface", "name", iface.Name)
	return nil
}

func (p *Processor) renderServerConf(_ context.Context, st *setupState) error {
	st.conf = models.RenderServer(st.identity, st.egress)
	return nil
}

func (p *Processor) persistServerConf(_ context.Context, st *setupState) error {
	if err := os.MkdirAll(p.settings.WireguardDir, wgConfDirMode); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return keys.WriteOwnerOnly(p.settings.ServerConfPath(), []byte(st.conf))
}

func (p *Processor) enableForwarding(ctx context.Context, _ *setupState) error {
	return p.System.EnableForwarding(ctx)
}

func (p *Processor) reloadSysctl(ctx context.Context, _ *setupState) error {
	return p.System.ReloadSysctl(ctx)
}

func (p *Processor) enableAtBoot(ctx context.Context, _ *setupState) error {
	return p.System.EnableAtBoot(ctx, p.settings.InterfaceName)
}

func (p *Processor) fixPermissions(ctx context.Context, _ *setupState) error {
	if err := p.System.FixOwnership(ctx, p.settings.WireguardDir); err != nil {
		return err
	}
	return p.System.RestrictConfig(ctx, p.settings.ServerConfPath())
}
