package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
)

// ValidateMessageContract enforces Type() plus the optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if !strings.HasPrefix(strings.TrimSpace(m.Type()), "custody.") {
		return fmt.Errorf("gocommand: message type %q is not a custody message", m.Type())
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(handler)
}

// AddQueueResolver mirrors registered custody commands into a go-job queue
// registry so they can be dispatched asynchronously.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

// Handlers names the collaborators behind the custody commands and queries.
// Artifacts and Validator are optional; their queries are skipped when nil.
type Handlers struct {
	Service             core.CustodyService
	Artifacts           custodyquery.ArtifactReader
	Validator           core.ConfigurationValidator
	DisbursementOptions []core.DisbursementOption
}

// Subscriptions groups the dispatcher subscriptions created by Register.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

// Register registers and subscribes every custody command and query. On
// failure the subscriptions created so far are released.
func Register(adapter *RegistryAdapter, handlers Handlers, runnerOpts ...runner.Option) (Subscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if handlers.Service == nil {
		return nil, fmt.Errorf("gocommand: custody service is required")
	}

	subs := Subscriptions{}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, custodycommand.NewInitializePlatformCommand(handlers.Service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, custodycommand.NewProvisionOriginatorCommand(handlers.Service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribe(adapter, custodycommand.NewRegisterArtifactsCommand(handlers.Service), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			cmd := custodycommand.NewInitiateDisbursementCommand(handlers.Service, handlers.DisbursementOptions...)
			return RegisterAndSubscribe(adapter, cmd, runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, custodyquery.NewGetProvisioningSnapshotQuery(handlers.Service), runnerOpts...)
		},
	}
	if handlers.Artifacts != nil {
		steps = append(steps, func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, custodyquery.NewGetProvisioningArtifactsQuery(handlers.Artifacts), runnerOpts...)
		})
	}
	if handlers.Validator != nil {
		steps = append(steps, func() (commanddispatcher.Subscription, error) {
			return RegisterAndSubscribeQuery(adapter, custodyquery.NewValidateConfigurationQuery(handlers.Validator), runnerOpts...)
		})
	}

	for _, step := range steps {
		sub, err := step()
		if err != nil {
			subs.Unsubscribe()
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.register(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.register(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}
