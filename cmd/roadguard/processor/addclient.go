package processor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"roadguard/cmd/roadguard/allocator"
	"roadguard/cmd/roadguard/keys"
	"roadguard/models"
)

type AddClientRequest struct {
	// Endpoint is the host name or address clients reach the server on.
	Endpoint string
	// Name skips the prompt when set.
	Name string
}

type ClientResult struct {
	Name     string
	Address  netip.Addr
	ConfPath string
	QRPath   string
	Conf     string
}

type addClientState struct {
	req       AddClientRequest
	endpoint  string
	serverPub models.Key
	peer      models.ClientPeer
	fLock     *flock.Flock
	peerCount uint32
	conf      string
	result    ClientResult
}

// AddClient creates a client config and registers the client on the running
// interface. The peer count read and the registration happen under a file
// lock so concurrent runs cannot hand out the same address.
func (p *Processor) AddClient(ctx context.Context, req AddClientRequest) (*ClientResult, error) {
	st := &addClientState{req: req}
	defer func() {
		if st.fLock != nil {
			_ = st.fLock.Unlock()
		}
	}()

	executors := map[StepID]stepExecutor[addClientState]{
		StepValidateEndpoint:   p.validateEndpoint,
		StepLoadServerKey:      p.loadServerKey,
		StepGenerateClientKey:  p.generateClientKey,
		StepDeriveClientPublic: p.deriveClientPublic,
		StepChooseName:         p.chooseName,
		StepAcquireLock:        p.acquireLock,
		StepReadPeerCount:      p.readPeerCount,
		StepAllocateAddress:    p.allocateAddress,
		StepRenderClientConf:   p.renderClientConf,
		StepPersistClientConf:  p.persistClientConf,
		StepRegisterLivePeer:   p.registerLivePeer,
		StepExportQR:           p.exportQR,
	}
	if err := runChain(ctx, p.logger, AddClientStepDefinitions(), executors, st); err != nil {
		return nil, err
	}

	p.logger.Info("client added",
		"name", st.result.Name,
		"address", st.result.Address.String(),
		"conf", st.result.ConfPath)
	return &st.result, nil
}

func (p *Processor) validateEndpoint(_ context.Context, st *addClientState) error {
	endpoint := strings.TrimSpace(st.req.Endpoint)
	if endpoint == "" && p.settings.UseSTUN {
		host, err := p.publicHost(p.settings.StunServers)
		if err != nil {
			return err
		}
		p.logger.Info("discovered public endpoint", "host", host)
		endpoint = host
	}
	if endpoint == "" {
		return fmt.Errorf("%w: an endpoint is required to add a client", models.ErrValidation)
	}
	host, err := endpointHost(endpoint)
	if err != nil {
		return err
	}
	st.endpoint = host
	return nil
}

// endpointHost accepts a host name, an IPv4 address or a bare or bracketed
// IPv6 address. The listen port is appended when rendering, so a port here
// would end up twice in the client config.
func endpointHost(endpoint string) (string, error) {
	if strings.ContainsAny(endpoint, " \t\r\n/") {
		return "", fmt.Errorf("%w: invalid endpoint %q", models.ErrValidation, endpoint)
	}
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return "", fmt.Errorf("%w: endpoint %q must not carry a port, clients always use the listen port", models.ErrValidation, endpoint)
	}

	host := endpoint
	bracketed := strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]")
	if bracketed {
		host = host[1 : len(host)-1]
	}
	if !bracketed && !strings.Contains(host, ":") {
		if strings.ContainsAny(host, "[]") {
			return "", fmt.Errorf("%w: invalid endpoint %q", models.ErrValidation, endpoint)
		}
		return host, nil
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is6() {
		return "", fmt.Errorf("%w: invalid endpoint %q", models.ErrValidation, endpoint)
	}
	return addr.String(), nil
}

// loadServerKey reads server_public_key, falling back to deriving it from
// server_private_key and then from the PrivateKey of the server config.
func (p *Processor) loadServerKey(ctx context.Context, st *addClientState) error {
	pub, err := p.Keys.Load(p.settings.PublicKeyPath())
	if err == nil {
		st.serverPub = pub
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	priv, err := p.Keys.Load(p.settings.PrivateKeyPath())
	if errors.Is(err, os.ErrNotExist) {
		priv, err = p.serverConfPrivateKey()
	}
	if err != nil {
		return fmt.Errorf("server keys not found, run setup first: %w", err)
	}
	pub, err = p.Keys.DerivePublic(ctx, priv)
	if err != nil {
		return err
	}
	st.serverPub = pub
	return nil
}

func (p *Processor) serverConfPrivateKey() (models.Key, error) {
	path := p.settings.ServerConfPath()
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	priv, ok := models.LookupField(string(buf), "Interface", "PrivateKey")
	if !ok || priv == "" {
		return "", fmt.Errorf("%w: no PrivateKey in %s", models.ErrPersistence, path)
	}
	return models.Key(priv), nil
}

func (p *Processor) generateClientKey(ctx context.Context, st *addClientState) error {
	priv, err := p.Keys.GeneratePrivate(ctx)
	if err != nil {
		return err
	}
	st.peer.Keypair.Private = priv
	return nil
}

func (p *Processor) deriveClientPublic(ctx context.Context, st *addClientState) error {
	pub, err := p.Keys.DerivePublic(ctx, st.peer.Keypair.Private)
	if err != nil {
		return err
	}
	st.peer.Keypair.Public = pub
	return nil
}

func (p *Processor) chooseName(ctx context.Context, st *addClientState) error {
	name := strings.TrimSpace(st.req.Name)
	if name == "" {
		if p.Prompter == nil {
			return fmt.Errorf("%w: a client name is required", models.ErrValidation)
		}
		var err error
		if name, err = p.Prompter.PromptName(ctx); err != nil {
			return err
		}
	}
	if err := ValidateClientName(name); err != nil {
		return err
	}

	path := p.settings.ClientConfPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", models.ErrValidation, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	st.peer.Name = name
	return nil
}

func (p *Processor) acquireLock(_ context.Context, st *addClientState) error {
	fLock := flock.New(p.settings.LockPath())
	if ok, err := fLock.TryLock(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	} else if !ok {
		return models.ErrLocked
	}
	st.fLock = fLock
	return nil
}

func (p *Processor) readPeerCount(ctx context.Context, st *addClientState) error {
	n, err := p.Peers.PeerCount(ctx)
	if err != nil {
		return err
	}
	st.peerCount = n
	return nil
}

func (p *Processor) allocateAddress(_ context.Context, st *addClientState) error {
	addr, err := allocator.NextAddress(p.settings.ServerAddress.Addr(), st.peerCount)
	if err != nil {
		return err
	}
	if addr == p.settings.ServerAddress.Addr() {
		return fmt.Errorf("%w: allocated %s is the server address", models.ErrValidation, addr)
	}
	st.peer.Address = addr
	return nil
}

func (p *Processor) renderClientConf(_ context.Context, st *addClientState) error {
	st.conf = models.RenderClient(st.peer, st.serverPub, st.endpoint, p.settings.ListenPort, p.settings.DNS)
	return nil
}

func (p *Processor) persistClientConf(_ context.Context, st *addClientState) error {
	path := p.settings.ClientConfPath(st.peer.Name)
	if err := keys.WriteOwnerOnly(path, []byte(st.conf)); err != nil {
		return err
	}
	st.result = ClientResult{
		Name:     st.peer.Name,
		Address:  st.peer.Address,
		ConfPath: path,
		Conf:     st.conf,
	}
	return nil
}

func (p *Processor) registerLivePeer(ctx context.Context, st *addClientState) error {
	return p.System.RegisterLivePeer(ctx, st.peer.Keypair.Public, st.peer.Address)
}

func (p *Processor) exportQR(_ context.Context, st *addClientState) error {
	if !p.settings.GenerateQR || p.qrWriter == nil {
		return nil
	}
	path := p.settings.ClientQRPath(st.peer.Name)
	if err := p.qrWriter(path, st.conf); err != nil {
		return err
	}
	st.result.QRPath = path
	return nil
}
