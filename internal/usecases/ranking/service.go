package ranking

import (
	"sort"
	"time"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
)

type RankingService interface {
	RankUnits(units []domain.UnitKPI) []domain.UnitRankingItem
}

// UnitRankingService ordena as unidades de negócio pelo score de desempenho do último período
type UnitRankingService struct{}

func NewUnitRankingService() RankingService {
	return &UnitRankingService{}
}

// RankUnits monta o ranking do período mais recente e compara com o período anterior
func (s *UnitRankingService) RankUnits(units []domain.UnitKPI) []domain.UnitRankingItem {
	if len(units) == 0 {
		return []domain.UnitRankingItem{}
	}

	latest := units[0].Period
	for _, unit := range units {
		if unit.Period.After(latest) {
			latest = unit.Period
		}
	}

	current := s.rankPeriod(units, latest)

	rankingsBefore := make(map[string]*domain.UnitRankingItem)
	for _, item := range s.rankPeriod(units, domain.AddMonths(latest, -1)) {
		rankingsBefore[item.BusinessUnit] = item
	}

	s.updatePositions(current, rankingsBefore)

	ranking := make([]domain.UnitRankingItem, 0, len(current))
	for _, item := range current {
		ranking = append(ranking, *item)
	}
	return ranking
}

func (s *UnitRankingService) rankPeriod(units []domain.UnitKPI, period time.Time) []*domain.UnitRankingItem {
	items := make([]*domain.UnitRankingItem, 0)
	for _, unit := range units {
		if !unit.Period.Equal(period) {
			continue
		}
		items = append(items, &domain.UnitRankingItem{
			BusinessUnit:     unit.BusinessUnit,
			Period:           unit.Period,
			PerformanceScore: unit.PerformanceScore,
			UnitRevenue:      unit.UnitRevenue,
		})
	}

	sortByPerformance(items)

	for i, item := range items {
		item.Position = i + 1
	}
	return items
}

func (*UnitRankingService) updatePositions(
	updatedRankings []*domain.UnitRankingItem,
	rankingsBefore map[string]*domain.UnitRankingItem,
) {
	for _, ranking := range updatedRankings {
		rankingBefore, exists := rankingsBefore[ranking.BusinessUnit]
		if exists {
			ranking.PositionChange = rankingBefore.Position - ranking.Position
			ranking.PreviousPosition = rankingBefore.Position
		}
	}
}

// sortByPerformance ordena por score decrescente, com score não aplicável por último.
// Empates são desfeitos pela receita e depois pelo nome da unidade.
func sortByPerformance(items []*domain.UnitRankingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.PerformanceScore.Valid != b.PerformanceScore.Valid {
			return a.PerformanceScore.Valid
		}
		if a.PerformanceScore.Valid && a.PerformanceScore.Value != b.PerformanceScore.Value {
			return a.PerformanceScore.Value > b.PerformanceScore.Value
		}
		if a.UnitRevenue != b.UnitRevenue {
			return a.UnitRevenue > b.UnitRevenue
		}
		return a.BusinessUnit < b.BusinessUnit
	})
}
