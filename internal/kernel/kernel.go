// Package kernel wires the metadata factories, the data layer, the
// serializer and the GraphQL schema of an application from its
// configuration and its registered resource classes.
package kernel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/cache"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/database"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/graphql/resolver"
	"github.com/Foxprodev/core/internal/graphql/resolver/stage"
	gqlschema "github.com/Foxprodev/core/internal/graphql/schema"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/extractor"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/orm/crud"
	"github.com/Foxprodev/core/internal/orm/migrate"
	"github.com/Foxprodev/core/internal/orm/relationships"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/Foxprodev/core/internal/orm/transaction"
	"github.com/Foxprodev/core/internal/orm/validation"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/serializer/hal"
	"github.com/Foxprodev/core/internal/serializer/jsonapi"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options are the inputs of New
type Options struct {
	Config  *config.Config
	Classes *class.Registry
	// DB is used as is when set. Otherwise the configured database is
	// opened when database.url is set, and the kernel runs without a data
	// layer when it is not.
	DB     *sql.DB
	Logger *zap.Logger
	// Metrics registers the metadata cache counters when set
	Metrics prometheus.Registerer
}

// Kernel holds the wired services
type Kernel struct {
	Config  *config.Config
	Logger  *zap.Logger
	Classes *class.Registry

	Names       property.NameFactory
	Properties  property.Factory
	Resources   resource.CollectionFactory
	Identifiers *identifiers.Extractor
	Converter   *identifier.Converter
	Iris        *iri.Converter
	Filters     *filter.Locator
	Pagination  *pagination.Pagination
	Checker     *security.CELChecker
	Tokens      *security.TokenService

	DB           *sql.DB
	Dialect      database.Dialect
	Schemas      *schema.Registry
	Items        dataprovider.ItemDataProvider
	Collections  dataprovider.CollectionDataProvider
	Subresources dataprovider.SubresourceDataProvider
	Transactions *transaction.Manager
	Persister    *crud.Persister
	Validator    *validation.Engine

	Normalizer *serializer.ItemNormalizer
	Serializer *serializer.Serializer
	GraphQL    *gqlschema.SchemaBuilder

	closers []func() error
}

// New wires a kernel. Call Close to release the cache pool and the
// database it opened.
func New(ctx context.Context, opts Options) (k *Kernel, err error) {
	if opts.Classes == nil {
		return nil, errors.New("kernel: no class registry given")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	k = &Kernel{Config: cfg, Logger: logger, Classes: opts.Classes}
	defer func() {
		if err != nil {
			k.Close()
		}
	}()

	if err := k.wireMetadata(ctx, opts); err != nil {
		return nil, err
	}
	if err := k.wireData(ctx, opts); err != nil {
		return nil, err
	}
	if err := k.wireSerializer(); err != nil {
		return nil, err
	}
	k.wireGraphQL()

	logger.Debug("kernel ready", zap.Strings("resources", opts.Classes.Classes()), zap.Bool("database", k.DB != nil))
	return k, nil
}

func (k *Kernel) wireMetadata(ctx context.Context, opts Options) error {
	cfg := k.Config

	pool, closePool, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	k.closers = append(k.closers, closePool)
	metrics, err := cache.NewMetrics(opts.Metrics)
	if err != nil {
		return fmt.Errorf("failed to register cache metrics: %w", err)
	}

	var propertyYAML property.YAMLSource
	var resourceYAML resource.YAMLSource
	if len(cfg.Metadata.Paths) > 0 {
		source := extractor.New(cfg.Metadata.Paths...)
		propertyYAML, resourceYAML = source, source
	}

	k.Names = property.NameChain(k.Classes, propertyYAML, func(inner property.NameFactory) property.NameFactory {
		return property.NewCachedNameFactory(inner, pool, k.Logger, metrics)
	})
	k.Properties = property.Chain(k.Classes, propertyYAML, k.Names, func(inner property.Factory) property.Factory {
		return property.NewCachedFactory(inner, pool, k.Logger, metrics)
	})
	k.Resources = resource.Chain(resource.ChainOptions{
		Registry: k.Classes,
		YAML:     resourceYAML,
		Defaults: resource.DefaultsFromConfig(cfg),
		Cached: func(inner resource.CollectionFactory) resource.CollectionFactory {
			return resource.NewCachedCollectionFactory(inner, pool, k.Logger, metrics)
		},
	})
	k.Identifiers = identifiers.NewExtractor(k.Classes, k.Names, k.Properties)
	k.Converter = identifier.NewConverter(k.Identifiers, k.Properties)

	k.Filters, err = filter.NewLocatorFromDeclarations(k.Classes, k.Logger)
	if err != nil {
		return err
	}
	k.Pagination = pagination.New(pagination.OptionsFromConfig(cfg.Pagination))

	k.Checker, err = security.NewCELChecker(security.NewRoleHierarchy(cfg.Security.RoleHierarchy), k.Logger)
	if err != nil {
		return err
	}
	if cfg.Security.JWTSecret != "" {
		k.Tokens = security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.RolesClaim)
	}
	k.Validator = validation.NewEngine(k.Classes, k.Checker, k.Logger)
	return nil
}

func (k *Kernel) wireData(ctx context.Context, opts Options) error {
	cfg := k.Config

	dialect, err := database.DialectOf(cfg.Database.Driver)
	if err != nil {
		return err
	}
	k.Dialect = dialect
	k.Schemas, err = schema.FromClasses(k.Classes)
	if err != nil {
		return err
	}

	k.DB = opts.DB
	if k.DB == nil && cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database, k.Logger)
		if err != nil {
			return err
		}
		k.DB = db
		k.closers = append(k.closers, db.Close)
	}
	if k.DB == nil {
		k.Items = dataprovider.NewChainItemDataProvider()
		k.Collections = dataprovider.NewChainCollectionDataProvider()
		k.Subresources = dataprovider.NewChainSubresourceDataProvider()
		return nil
	}

	hydrator := dataprovider.NewHydrator(k.Classes, k.Schemas)
	eager := dataprovider.NewEagerLoadingExtension(relationships.NewLoader(k.DB, k.Schemas), k.Properties, k.Logger)
	collectionExtensions := []dataprovider.QueryCollectionExtension{
		dataprovider.NewFilterExtension(k.Filters),
		dataprovider.NewOrderExtension(),
		eager,
		dataprovider.NewPaginationExtension(k.Pagination),
	}
	itemExtensions := []dataprovider.QueryItemExtension{eager}

	k.Items = dataprovider.NewChainItemDataProvider(
		dataprovider.NewItemDataProvider(k.DB, k.Schemas, hydrator, k.Logger, itemExtensions...),
	)
	k.Collections = dataprovider.NewChainCollectionDataProvider(
		dataprovider.NewCollectionDataProvider(k.DB, k.Schemas, hydrator, k.Logger, collectionExtensions...),
	)
	k.Subresources = dataprovider.NewChainSubresourceDataProvider(
		dataprovider.NewSubresourceDataProvider(k.DB, k.Schemas, hydrator, k.Logger, collectionExtensions, itemExtensions),
	)

	k.Transactions = transaction.NewManager(k.DB, transaction.WithLogger(k.Logger))
	k.Persister = crud.NewPersister(k.Classes, k.Schemas, k.Transactions, k.Logger)
	return nil
}

func (k *Kernel) wireSerializer() error {
	cfg := k.Config
	debug := cfg.Logging.Development

	k.Iris = iri.NewConverter(k.Classes, k.Resources, k.Identifiers, k.Converter, k.Items, k.Logger)
	names, ok := serializer.NameConverterByName(cfg.Serializer.NameConverter)
	if !ok {
		return apierr.Configuration("unknown serializer.name_converter %q", cfg.Serializer.NameConverter)
	}
	k.Normalizer = serializer.NewItemNormalizer(serializer.Config{
		Registry:              k.Classes,
		Resources:             k.Resources,
		Names:                 k.Names,
		Properties:            k.Properties,
		Identifiers:           k.Identifiers,
		Iris:                  k.Iris,
		NameConverter:         names,
		Checker:               k.Checker,
		Items:                 k.Items,
		AllowPlainIdentifiers: cfg.Serializer.AllowPlainIdentifiers,
		Logger:                k.Logger,
	})
	k.Serializer = serializer.NewDefault(k.Normalizer, debug, k.Logger)
	jsonapi.Register(k.Serializer, k.Normalizer, debug)
	hal.Register(k.Serializer, k.Normalizer, debug)
	return nil
}

func (k *Kernel) wireGraphQL() {
	cfg := k.Config

	var validator stage.Validator = k.Validator
	var persister stage.Persister
	if k.Persister != nil {
		persister = k.Persister
	}

	resolvers := resolver.NewFactory(resolver.Config{
		Stages: resolver.Stages{
			Read: stage.NewReadStage(stage.ReadConfig{
				Registry:          k.Classes,
				Iris:              k.Iris,
				Collections:       k.Collections,
				Subresources:      k.Subresources,
				NestingSeparator:  cfg.GraphQL.NestingSeparator,
				DeprecationNotice: cfg.GraphQL.DeprecationNotice,
				Logger:            k.Logger,
			}),
			Security:                stage.NewSecurityStage(k.Checker),
			SecurityPostDenormalize: stage.NewSecurityPostDenormalizeStage(k.Checker),
			Serialize:               stage.NewSerializeStage(k.Normalizer, k.Pagination),
			Deserialize:             stage.NewDeserializeStage(k.Normalizer),
			Validate:                stage.NewValidateStage(validator),
			Write:                   stage.NewWriteStage(persister),
		},
		Registry: k.Classes,
		Debug:    cfg.Logging.Development,
		Logger:   k.Logger,
	})

	types := gqlschema.NewTypeBuilder(gqlschema.NewTypesContainer(), k.Pagination)
	fields := gqlschema.NewFieldsBuilder(gqlschema.FieldsConfig{
		Registry:         k.Classes,
		Resources:        k.Resources,
		Properties:       k.Properties,
		Names:            k.Names,
		Filters:          k.Filters,
		Pagination:       k.Pagination,
		Resolvers:        resolvers,
		Types:            types,
		NestingSeparator: cfg.GraphQL.NestingSeparator,
		MaxDepth:         cfg.GraphQL.MaxDepth,
		Logger:           k.Logger,
	})
	k.GraphQL = gqlschema.NewSchemaBuilder(resource.NewRegistryNameFactory(k.Classes), k.Resources, fields, k.Logger)
}

// GraphQLSchema builds the GraphQL schema
func (k *Kernel) GraphQLSchema(ctx context.Context) (graphql.Schema, error) {
	if !k.Config.GraphQL.Enabled {
		return graphql.Schema{}, errors.New("graphql is disabled")
	}
	return k.GraphQL.Build(ctx)
}

// SchemaMigration generates the migration creating the tables of every
// resource in the configured dialect
func (k *Kernel) SchemaMigration(version int64, name string) (*migrate.Migration, error) {
	return migrate.NewGenerator(k.Dialect).Generate(version, name, k.Schemas)
}

// Close releases what New opened
func (k *Kernel) Close() error {
	var errs []error
	for i := len(k.closers) - 1; i >= 0; i-- {
		if err := k.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	k.closers = nil
	return errors.Join(errs...)
}
