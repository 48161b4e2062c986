package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// OverviewStats resume um conjunto filtrado de vendas. Conjunto vazio resulta em zeros.
type OverviewStats struct {
	TotalSales    float64 `json:"totalSales"`
	TotalQuantity int64   `json:"totalQuantity"`
	AveragePrice  float64 `json:"averagePrice"`
	Count         int64   `json:"count"`
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
}

type Dimension string

const (
	DimensionCity     Dimension = "city"
	DimensionCategory Dimension = "category"
)

func (d Dimension) IsValid() bool {
	return d == DimensionCity || d == DimensionCategory
}

// Key devolve o valor da dimensão para a venda; nil forma o seu próprio grupo
func (d Dimension) Key(s *Sale) *string {
	switch d {
	case DimensionCity:
		city := s.Address.City
		return &city
	case DimensionCategory:
		if s.Product.Category == nil {
			return nil
		}
		category := *s.Product.Category
		return &category
	default:
		return nil
	}
}

type GroupStat struct {
	Key        *string `json:"key"`
	TotalSales float64 `json:"totalSales"`
	Count      int64   `json:"count"`
}

type StatsOverview struct {
	Overview      OverviewStats `json:"overview"`
	TopCities     []GroupStat   `json:"topCities"`
	TopCategories []GroupStat   `json:"topCategories"`
}

// Summarize calcula as estatísticas gerais em memória
func Summarize(sales []*Sale) OverviewStats {
	if len(sales) == 0 {
		return OverviewStats{}
	}

	total := decimal.Zero
	minPrice := decimal.NewFromFloat(sales[0].Price.Amount)
	maxPrice := minPrice
	var quantity int64

	for _, s := range sales {
		amount := decimal.NewFromFloat(s.Price.Amount)
		total = total.Add(amount)
		quantity += int64(s.Product.Quantity)

		if amount.LessThan(minPrice) {
			minPrice = amount
		}
		if amount.GreaterThan(maxPrice) {
			maxPrice = amount
		}
	}

	count := int64(len(sales))

	return OverviewStats{
		TotalSales:    total.InexactFloat64(),
		TotalQuantity: quantity,
		AveragePrice:  total.Div(decimal.NewFromInt(count)).InexactFloat64(),
		Count:         count,
		MinPrice:      minPrice.InexactFloat64(),
		MaxPrice:      maxPrice.InexactFloat64(),
	}
}

// GroupSales agrupa as vendas pela dimensão, ordena por total decrescente e limita o resultado.
// limit <= 0 devolve todos os grupos.
func GroupSales(sales []*Sale, dimension Dimension, limit int) []GroupStat {
	type bucket struct {
		key   *string
		total decimal.Decimal
		count int64
	}

	var nullBucket *bucket
	buckets := make(map[string]*bucket)

	for _, s := range sales {
		key := dimension.Key(s)

		var b *bucket
		if key == nil {
			if nullBucket == nil {
				nullBucket = &bucket{total: decimal.Zero}
			}
			b = nullBucket
		} else {
			b = buckets[*key]
			if b == nil {
				b = &bucket{key: key, total: decimal.Zero}
				buckets[*key] = b
			}
		}

		b.total = b.total.Add(decimal.NewFromFloat(s.Price.Amount))
		b.count++
	}

	all := make([]*bucket, 0, len(buckets)+1)
	for _, b := range buckets {
		all = append(all, b)
	}
	if nullBucket != nil {
		all = append(all, nullBucket)
	}

	sort.Slice(all, func(i, j int) bool {
		if c := all[i].total.Cmp(all[j].total); c != 0 {
			return c > 0
		}
		return groupKeyLess(all[i].key, all[j].key)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	groups := make([]GroupStat, 0, len(all))
	for _, b := range all {
		groups = append(groups, GroupStat{
			Key:        b.key,
			TotalSales: b.total.InexactFloat64(),
			Count:      b.count,
		})
	}

	return groups
}

// SortGroups aplica a ordenação canônica dos grupos: total decrescente, chave crescente, nulo por último
func SortGroups(groups []GroupStat) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].TotalSales != groups[j].TotalSales {
			return groups[i].TotalSales > groups[j].TotalSales
		}
		return groupKeyLess(groups[i].Key, groups[j].Key)
	})
}

func groupKeyLess(a, b *string) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
