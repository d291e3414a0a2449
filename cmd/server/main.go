package main

import (
	"context"
	"flag"
	"log/syslog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/tidwall/buntdb"
	"github.com/uptrace/bun"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/assets"
	"github.com/whoameye/biocard/cache"
	"github.com/whoameye/biocard/config"
	"github.com/whoameye/biocard/discord"
	"github.com/whoameye/biocard/editor"
	"github.com/whoameye/biocard/inmem"
	"github.com/whoameye/biocard/ogimage"
	"github.com/whoameye/biocard/passwordreset"
	"github.com/whoameye/biocard/persistent"
	"github.com/whoameye/biocard/render"
	"github.com/whoameye/biocard/transport/rest"
)

func setupLogger(cfg config.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if !cfg.Syslog {
		return
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "whoameye")
	if err != nil {
		logrus.WithError(err).Fatalln("Could not create syslog hook.")
		return
	}
	logrus.AddHook(syslogHook)
}

// openRedis returns nil when the cache is disabled or unreachable.
func openRedis(ctx context.Context, redisUrl string) *redis.Client {
	if redisUrl == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		logrus.WithError(err).Warnln("Invalid REDIS_URL, continuing without profile cache.")
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warnln("Redis unreachable, continuing without profile cache.")
		_ = client.Close()
		return nil
	}
	return client
}

type stores struct {
	users      biocard.UserStore
	profiles   biocard.ProfileStore
	activities biocard.ActivityStore
	sessions   *persistent.SessionStore
	assets     *assets.FsStore
}

func newStores(db *bun.DB, bdb *buntdb.DB, redisClient *redis.Client, cfg config.Config) (stores, error) {
	activityStore := &persistent.ActivityStore{DB: db}
	sessionStore := &persistent.SessionStore{Buntdb: bdb, ActivityStore: activityStore}
	if err := sessionStore.CreateIndexes(); err != nil {
		return stores{}, err
	}

	var profileStore biocard.ProfileStore = &persistent.ProfileStore{DB: db}
	if redisClient != nil {
		profileStore = &cache.ProfileStore{Next: profileStore, Client: redisClient, TTL: cfg.RedisTTL}
	}

	return stores{
		users:      &persistent.UserStore{DB: db},
		profiles:   profileStore,
		activities: activityStore,
		sessions:   sessionStore,
		assets:     assets.NewOsStore(cfg.AssetsDir, cfg.PublicUrl+"/assets"),
	}, nil
}

func listenAndServe(cfg config.Config, s stores) (func() error, error) {
	events := inmem.NewAuthBroadcaster()
	if err := s.sessions.PublishExpired(events); err != nil {
		return nil, err
	}
	registry := editor.NewRegistry(editor.Stores{
		Profiles:   s.profiles,
		Assets:     s.assets,
		Activities: s.activities,
	}, events)

	previews, err := ogimage.NewGenerator(ogimage.AgentFetcher{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	authController := rest.AuthController{
		UserStore:    s.users,
		SessionStore: s.sessions,
		Events:       events,
		Reset: &passwordreset.Service{
			Users:      s.users,
			Tokens:     passwordreset.NewTokens(cfg.ResetTokenSecret, cfg.ResetTokenTTL),
			Mailer:     passwordreset.LogMailer{},
			Activities: s.activities,
			ResetUrl:   cfg.PublicUrl + "/reset-password",
		},
	}
	if cfg.DiscordEnabled() {
		authController.Discord = discord.NewClient(cfg.DiscordClientId, cfg.DiscordClientSecret, cfg.DiscordAuthUri)
	}
	sessionController := rest.SessionController{Store: s.sessions, Events: events}
	activityController := rest.ActivityController{Store: s.activities}
	editorController := rest.EditorController{Registry: registry, PublicUrl: cfg.PublicUrl}
	profileController := rest.ProfileController{
		Profiles:   s.profiles,
		Assets:     s.assets,
		Activities: s.activities,
		Events:     events,
	}
	pageController := rest.PageController{Profiles: s.profiles, Previews: previews, PublicUrl: cfg.PublicUrl}
	assetController := rest.AssetController{Store: s.assets}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		BodyLimit:    (biocard.GalleryCapacity + 1) * assets.MaxAssetSize,
		ErrorHandler: rest.ErrorHandler,
		Views:        render.Views(),
	})
	app.Use(recover.New())
	app.Use(rest.LogHandler())

	prometheus := fiberprometheus.New("whoameye")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Use("/api", cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	requestAuthorizer := rest.RequestAuthorizer(s.sessions, s.users)
	rest.InstallAdminTo(requestAuthorizer, app)
	authController.InstallTo(app)
	sessionController.InstallTo(requestAuthorizer, app)
	activityController.InstallTo(requestAuthorizer, app)
	editorController.InstallTo(requestAuthorizer, app)
	profileController.InstallTo(requestAuthorizer, app)
	pageController.InstallTo(app)
	assetController.InstallTo(app)

	app.Use(rest.NotFoundHandler)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			logrus.WithError(err).Fatalln("Listen failed.")
		}
	}()

	return func() error {
		_ = registry.Close()
		return app.ShutdownWithTimeout(10 * time.Second)
	}, nil
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

func main() {
	flag.Parse()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("Could not load configuration.")
	}
	setupLogger(cfg)
	logrus.Infoln("Starting backend.")
	ctx := context.Background()

	bdb, err := buntdb.Open(cfg.KvPath)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open buntdb.")
	}
	defer bdb.Close()

	logrus.WithField("driver", cfg.DbDriver).Infoln("Opening database.")
	dsn := cfg.PostgresDsn
	if cfg.DbDriver == persistent.DriverSqlite {
		dsn = cfg.SqlitePath
	}
	db, err := persistent.Open(ctx, persistent.Options{Driver: cfg.DbDriver, Dsn: dsn, Verbose: cfg.DbVerbose})
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open database.")
	}
	defer db.Close()
	if err := persistent.CreateSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not create schema.")
	}

	redisClient := openRedis(ctx, cfg.RedisUrl)
	if redisClient != nil {
		defer redisClient.Close()
	}

	s, err := newStores(db, bdb, redisClient, cfg)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not set up stores.")
	}

	logrus.WithField("addr", cfg.Addr).Infoln("Starting listening... To shut down use ^C")
	shutdown, err := listenAndServe(cfg, s)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not start server.")
	}

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	if err := shutdown(); err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
}
