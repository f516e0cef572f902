// Package lingotests starts the containers integration tests depend on.
package lingotests

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcNats "github.com/testcontainers/testcontainers-go/modules/nats"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcValKey "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ValKeyImage = "docker.io/valkey/valkey:latest"

	NatsImage    = "nats:latest"
	NatsUser     = "lingo"
	NatsPassword = "l1ng0"

	PostgresqlDBImage = "postgres:latest"
	DBUser            = "lingo"
	DBPassword        = "l1ng0"
	DBName            = "lingo_test"

	postgresReadyOccurrence = 2
	startupTimeout          = 60 * time.Second
)

// Resource is a containerised dependency of a test suite.
type Resource interface {
	Name() string
	Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error
	// URI is the connection string reachable from the test process.
	URI() string
	Cleanup(ctx context.Context)
}

type valkeyResource struct {
	image     string
	uri       string
	container *tcValKey.ValkeyContainer
}

// NewValkey describes a valkey server, reachable with both redis and valkey clients.
func NewValkey() Resource {
	return &valkeyResource{image: ValKeyImage}
}

func (d *valkeyResource) Name() string {
	return d.image
}

func (d *valkeyResource) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	container, err := tcValKey.Run(ctx, d.image,
		network.WithNetwork([]string{"valkey", "cache-valkey"}, ntwk),
	)
	if err != nil {
		return fmt.Errorf("failed to start valkey container: %w", err)
	}
	d.container = container

	d.uri, err = container.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string for valkey container: %w", err)
	}
	return nil
}

func (d *valkeyResource) URI() string {
	return d.uri
}

func (d *valkeyResource) Cleanup(ctx context.Context) {
	if d.container != nil {
		_ = d.container.Terminate(ctx)
	}
}

type postgresResource struct {
	image     string
	dbname    string
	uri       string
	container *tcPostgres.PostgresContainer
}

// NewPostgres describes a PostgreSQL server holding an empty test database.
func NewPostgres() Resource {
	return &postgresResource{image: PostgresqlDBImage, dbname: DBName}
}

func (d *postgresResource) Name() string {
	return d.image
}

func (d *postgresResource) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	container, err := tcPostgres.Run(ctx, d.image,
		network.WithNetwork([]string{"postgres", "db-postgres"}, ntwk),
		tcPostgres.WithDatabase(d.dbname),
		tcPostgres.WithUsername(DBUser),
		tcPostgres.WithPassword(DBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(postgresReadyOccurrence).
				WithStartupTimeout(startupTimeout)),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	d.container = container

	d.uri, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get connection string for postgres container: %w", err)
	}
	return nil
}

func (d *postgresResource) URI() string {
	return d.uri
}

func (d *postgresResource) Cleanup(ctx context.Context) {
	if d.container != nil {
		_ = d.container.Terminate(ctx)
	}
}

type natsResource struct {
	image     string
	uri       string
	container *tcNats.NATSContainer
}

// NewNats describes a NATS server with JetStream enabled.
func NewNats() Resource {
	return &natsResource{image: NatsImage}
}

func (d *natsResource) Name() string {
	return d.image
}

func (d *natsResource) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	container, err := tcNats.Run(ctx, d.image,
		network.WithNetwork([]string{"nats", "queue-nats"}, ntwk),
		testcontainers.WithCmdArgs("--js"),
		tcNats.WithUsername(NatsUser),
		tcNats.WithPassword(NatsPassword),
		testcontainers.WithWaitStrategy(wait.ForLog("Server is ready")),
	)
	if err != nil {
		return fmt.Errorf("failed to start nats container: %w", err)
	}
	d.container = container

	conn, err := container.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string for nats container: %w", err)
	}

	u, err := url.Parse(conn)
	if err != nil {
		return err
	}
	u.User = url.UserPassword(NatsUser, NatsPassword)
	d.uri = u.String()
	return nil
}

// URI carries the credentials, queries for a subject are appended by the caller.
func (d *natsResource) URI() string {
	return d.uri
}

func (d *natsResource) Cleanup(ctx context.Context) {
	if d.container != nil {
		_ = d.container.Terminate(ctx)
	}
}
