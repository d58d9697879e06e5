package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/modules/account"
	"github.com/chatkitlabs/chatd/modules/catalog"
	"github.com/chatkitlabs/chatd/modules/chat"
	"github.com/chatkitlabs/chatd/modules/security"
	"github.com/chatkitlabs/chatd/pkg/auth"
	"github.com/chatkitlabs/chatd/pkg/config"
	"github.com/chatkitlabs/chatd/pkg/httpserver"
	"github.com/chatkitlabs/chatd/pkg/jwt"
	"github.com/chatkitlabs/chatd/pkg/logger"
	"github.com/chatkitlabs/chatd/pkg/mongo"
	"github.com/chatkitlabs/chatd/pkg/redis"
	"github.com/chatkitlabs/chatd/pkg/secrets"
	"github.com/chatkitlabs/chatd/pkg/totp"
)

type appConfig struct {
	TOTPSecret string `env:"TOTP_SECRET_KEY,required"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "chatd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg      appConfig
		logCfg      logger.Config
		httpCfg     httpserver.Config
		mongoCfg    mongo.Config
		redisCfg    redis.Config
		secretsCfg  secrets.Config
		jwtCfg      jwt.Config
		oauthCfg    auth.GoogleOAuthConfig
		securityCfg security.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&mongoCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&secretsCfg) },
		func() error { return config.Load(&jwtCfg) },
		func() error { return config.Load(&oauthCfg) },
		func() error { return config.Load(&securityCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.NewFromConfig(logCfg)

	db, err := mongo.NewWithDatabase(ctx, mongoCfg)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer db.Client().Disconnect(context.Background())

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	vault, err := secrets.Load(secretsCfg)
	if err != nil {
		return fmt.Errorf("keystore: %w", err)
	}
	tokens, err := jwt.New(jwtCfg, vault)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	totpSvc, err := totp.New(appCfg.TOTPSecret, totp.WithLogger(log))
	if err != nil {
		return fmt.Errorf("totp: %w", err)
	}

	users := account.NewStore(db)
	chats := chat.NewStore(db)
	products := catalog.NewStore(db)
	for _, ensure := range []func(context.Context) error{users.EnsureIndexes, chats.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("indexes: %w", err)
		}
	}

	flow := auth.New(users.AuthStore(), vault, tokens, auth.WithLogger(log))
	google := auth.NewGoogleOAuth(oauthCfg, auth.NewRedisStateStore(redisClient),
		auth.WithGoogleLogger(log))

	authenticated := jwt.Middleware(tokens)
	adminOnly := jwt.RequireRoles(tokens, "admin")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(
		mongo.Healthcheck(db.Client()),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/auth", account.NewAuthHandler(flow).Handle())
	r.Mount("/oauth", account.NewOAuthHandler(google, flow, users, vault,
		account.WithOAuthLogger(log)).Handle())

	r.Route("/users", func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/", account.NewUserHandler(users, flow).Handle())
	})
	r.Route("/chat", func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/", chat.NewHandler(chats, users).Handle())
	})
	r.Route("/products", func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/", catalog.NewHandler(products).Handle())
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)
		r.Mount("/", account.NewAdminHandler(users).Handle())
	})
	r.Route("/security", func(r chi.Router) {
		r.Use(adminOnly)
		r.Mount("/", security.NewHandler(securityCfg, totpSvc).Handle())
	})

	return httpserver.New(httpCfg, log).Run(ctx, r)
}

// healthHandler answers 200 when every dependency responds and 503 with
// the failing components otherwise.
func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				core.JSONError(w, core.ErrServiceUnavailable)
				return
			}
		}
		core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
