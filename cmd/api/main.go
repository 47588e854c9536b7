package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/config"
	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	"github.com/Svamsi2006/balaveerulu/internal/handler"
	"github.com/Svamsi2006/balaveerulu/internal/infra/db"
	"github.com/Svamsi2006/balaveerulu/internal/infra/mailer"
	"github.com/Svamsi2006/balaveerulu/internal/infra/payment"
	infraRepo "github.com/Svamsi2006/balaveerulu/internal/infra/repository"
	"github.com/Svamsi2006/balaveerulu/internal/infra/session"
	"github.com/Svamsi2006/balaveerulu/internal/infra/storage"
	"github.com/Svamsi2006/balaveerulu/internal/logger"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
	"github.com/Svamsi2006/balaveerulu/internal/server"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
	"github.com/Svamsi2006/balaveerulu/internal/validator"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), cfg.IsDev())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	if err := db.SeedProducts(ctx, productRepo, log); err != nil {
		return err
	}

	//セッション（Redisが無ければメモリ）
	var sessions repo.SessionStore
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		sessions = session.NewRedisStore(client, "balaveerulu:")
		log.Info("session store: redis")
	} else {
		sessions = session.NewMemoryStore()
		log.Warn("REDIS_URL not set, running with in-memory session store")
	}

	//メール（SMTP未設定なら送らない）
	var notifier usecase.Notifier
	var async *mailer.Async
	smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Warn("email disabled", zap.Error(err))
		notifier = mailer.NewNoop(log)
	} else {
		async = mailer.NewAsync(smtp, log, 30*time.Second)
		notifier = async
	}

	//写真アップロード（任意）
	var photos usecase.PhotoUploader
	if cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			return err
		}
		photos = cld
	} else {
		log.Warn("CLOUDINARY_URL not set, photo upload disabled")
	}

	payments := payment.NewRazorpay(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		StoreName: cfg.StoreName,
		LogoURL:   cfg.StoreLogoURL,
	})

	//価格と割引
	coupons := pricing.DefaultCoupons()
	if cfg.Coupons != nil {
		if coupons, err = pricing.NewCouponTable(cfg.Coupons); err != nil {
			return err
		}
	}
	policy := pricing.Policy{
		Coupons:             coupons,
		FamilyPackThreshold: cfg.FamilyPackThreshold,
		FamilyPackAmount:    cfg.FamilyPackAmount,
	}
	prices := pricing.PriceList{
		model.FormatDigital: cfg.PriceDigital,
		model.FormatPrint:   cfg.PricePrint,
		model.FormatCombo:   cfg.PriceCombo,
	}

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(productRepo, sessions, prices, log)
	placer := usecase.NewOrderPlacer(txm, sessions, notifier, clock, idGen, cfg.OrderNotifyEmail, log)
	cartUC := usecase.NewCartUsecase(cartRepo, sessions, catalogUC, policy, payments, placer, log)
	wizardUC := usecase.NewWizardUsecase(sessions, catalogUC, policy, payments, photos, placer, log)
	orderUC := usecase.NewOrderUsecase(txm, clock)
	sessionUC := usecase.NewSessionUsecase(cartUC, sessions, log)
	contactUC := usecase.NewContactUsecase(validator.NewContactValidator(), notifier, cfg.ContactNotifyMail, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, clock, log)

	//Handler生成
	e := server.New(cfg, log, server.Handlers{
		Product:    handler.NewProductHandler(catalogUC),
		Cart:       handler.NewCartHandler(cartUC),
		Wizard:     handler.NewWizardHandler(wizardUC),
		Order:      handler.NewOrderHandler(orderUC),
		Session:    handler.NewSessionHandler(sessionUC),
		Contact:    handler.NewContactHandler(contactUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	})

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	err = server.Start(ctx, e, addr, log)

	// 送信中のメールを待つ
	if async != nil {
		async.Wait()
	}
	return err
}
