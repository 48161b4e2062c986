package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/vfg2006/sales-tracker-api/infrastructure/repository"
	"github.com/vfg2006/sales-tracker-api/internal/config"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/internal/usecases/selling"
	"github.com/vfg2006/sales-tracker-api/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	sellers    = []string{"Ali Yılmaz", "Veli Kaya", "Ayşe Demir", "Fatma Şahin", "Mehmet Çelik"}
	buyers     = []string{"Zeynep Arslan", "Emre Koç", "Elif Aydın", "Can Öztürk", "Deniz Yıldız"}
	cities     = []string{"Istanbul", "Ankara", "İzmir", "Bursa", "Antalya", "Konya"}
	categories = []string{"Electronics", "Books", "Home", "Clothing", "Toys"}
	products   = []string{"Laptop", "Roman", "Kahve Makinesi", "Mont", "Lego Seti", "Telefon"}
	statuses   = domain.SaleStatuses
	deliveries = []domain.DeliveryType{domain.DeliveryTypeCourier, domain.DeliveryTypeHand, domain.DeliveryTypeDealer}
)

func main() {
	count := flag.IntP("count", "n", 50, "quantidade de vendas geradas")
	file := flag.StringP("file", "f", "", "arquivo JSON com uma lista de vendas; substitui a geração aleatória")
	seed := flag.Int64("seed", time.Now().UnixNano(), "semente do gerador aleatório")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	log.Setup(cfg.App.LogLevel, cfg.App.IsDevelopment())

	ctx := context.Background()

	repo, closer, err := repository.OpenSaleRepository(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao abrir o armazenamento de vendas")
	}
	defer closer.Close()

	var inputs []*domain.SaleInput
	if *file != "" {
		inputs, err = readInputs(*file)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao ler o arquivo de vendas")
		}
	} else {
		inputs, err = generateInputs(rand.New(rand.NewSource(*seed)), *count, time.Now().UTC())
		if err != nil {
			logrus.WithError(err).Fatal("Parâmetro --count inválido")
		}
	}

	seedSales(ctx, selling.NewService(repo, nil), inputs)
}

func readInputs(path string) ([]*domain.SaleInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var payloads []jsoniter.RawMessage
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, err
	}

	inputs := make([]*domain.SaleInput, 0, len(payloads))
	for i, payload := range payloads {
		input := &domain.SaleInput{}
		typeErrs, err := selling.DecodeInput(payload, input)
		if err != nil {
			return nil, fmt.Errorf("venda %d: %w", i+1, err)
		}
		if len(typeErrs) > 0 {
			return nil, fmt.Errorf("venda %d: %w", i+1, &selling.ValidationError{Fields: typeErrs})
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// generateInputs cria vendas distribuídas nos últimos 90 dias
func generateInputs(rng *rand.Rand, count int, now time.Time) ([]*domain.SaleInput, error) {
	if count < 0 {
		return nil, fmt.Errorf("quantidade de vendas não pode ser negativa: %d", count)
	}

	inputs := make([]*domain.SaleInput, 0, count)

	for i := 0; i < count; i++ {
		quantity := rng.Intn(5) + 1
		amount := float64(rng.Intn(500000)) / 100
		saleDate := now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)

		input := &domain.SaleInput{
			Seller:       domain.SellerInput{Name: pick(rng, sellers)},
			Buyer:        domain.BuyerInput{Name: pick(rng, buyers)},
			Address:      domain.AddressInput{Street: "Cumhuriyet Cd. " + strconv.Itoa(rng.Intn(200)+1), City: pick(rng, cities)},
			Product:      domain.ProductInput{Name: pick(rng, products), Quantity: &quantity},
			Price:        domain.PriceInput{Amount: &amount},
			SaleDate:     domain.NewInputDate(saleDate),
			Status:       pick(rng, statuses),
			DeliveryType: pick(rng, deliveries),
			CreatedBy:    "seed",
		}

		// parte das vendas fica sem categoria para alimentar o grupo nulo
		if rng.Intn(5) > 0 {
			category := pick(rng, categories)
			input.Product.Category = &category
		}

		inputs = append(inputs, input)
	}

	return inputs, nil
}

// seedSales passa cada venda pelo serviço, com a mesma validação da API
func seedSales(ctx context.Context, service selling.SalesService, inputs []*domain.SaleInput) (created, failed int) {
	logrus.Infof("Iniciando inserção de %d vendas...", len(inputs))
	startTime := time.Now()

	for i, input := range inputs {
		if _, err := service.Create(ctx, input); err != nil {
			logrus.WithError(err).Warnf("ERRO ao inserir venda [%d/%d]", i+1, len(inputs))
			failed++
			continue
		}
		created++

		if i > 0 && i%10 == 0 {
			logrus.Infof("Progresso: %d/%d vendas processadas", i+1, len(inputs))
		}
	}

	logrus.Infof("Inserção concluída em %v. Sucesso: %d, Erros: %d", time.Since(startTime), created, failed)
	return created, failed
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}
