package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"goloja/config"
	"goloja/internal/pkg/cache"
	"goloja/internal/pkg/database"
	"goloja/internal/pkg/logger"
	"goloja/internal/pkg/notifier"
	"goloja/internal/pkg/token"

	// Camadas para Injeção de Dependências (Repository -> Service -> Handler)
	"goloja/internal/api/cart"
	"goloja/internal/api/order"
	"goloja/internal/api/product"
	"goloja/internal/api/router"
	"goloja/internal/api/stock"
	"goloja/internal/api/tenant"
	"goloja/internal/api/user"
	"goloja/internal/repository/cartrepo"
	"goloja/internal/repository/orderrepo"
	"goloja/internal/repository/productrepo"
	"goloja/internal/repository/stockrepo"
	"goloja/internal/repository/tenantrepo"
	"goloja/internal/repository/userrepo"
	"goloja/internal/service/cartservice"
	"goloja/internal/service/orderservice"
	"goloja/internal/service/productservice"
	"goloja/internal/service/stockservice"
	"goloja/internal/service/tenantservice"
	"goloja/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoLoja...")
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// A tabela de transições do ciclo de vida do pedido é validada uma única
	// vez no boot: um estado não-terminal sem saída derruba o processo aqui.
	if err := orderservice.ValidateTransitionTable(); err != nil {
		log.Fatal("Tabela de transições de pedido inconsistente.", err)
	}

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// D. Notificador (SMTP quando configurado, Noop caso contrário)
	var orderNotifier notifier.Notifier = notifier.NoopNotifier{}
	if cfg.SMTPAddr != "" {
		orderNotifier = notifier.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, log)
		log.Info("Notificador SMTP inicializado.", map[string]interface{}{"addr": cfg.SMTPAddr})
	} else {
		log.Info("SMTP não configurado; notificações de pedido desativadas.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, log)
	stockRepo := stockrepo.NewStockRepository(db, cacheClient, cfg.DBTimeout, log)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, log)
	tenantRepo := tenantrepo.NewTenantRepository(db, cfg.DBTimeout, log)
	cartRepo := cartrepo.NewCartRepository(cacheClient, cfg.CartTTL, log)
	log.Debug("Repositórios inicializados.", nil)

	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	productSvc := productservice.NewService(productRepo, log)
	stockSvc := stockservice.NewService(stockRepo, log)
	orderSvc := orderservice.NewService(orderRepo, stockRepo, userRepo, orderNotifier, log)
	tenantSvc := tenantservice.NewService(tenantRepo, log)
	cartSvc := cartservice.NewService(cartRepo, log)
	log.Debug("Serviços inicializados.", nil)

	handlers := router.Handlers{
		Order:   order.NewHandler(orderSvc, log),
		Product: product.NewHandler(productSvc, log),
		Tenant:  tenant.NewHandler(tenantSvc, log),
		Cart:    cart.NewHandler(cartSvc, log),
		Stock:   stock.NewHandler(stockSvc, log),
		User:    user.NewHandler(userSvc, log),
	}
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, tokenSvc, cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoLoja ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
