package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"techticks-chat/internal/chatapi"
	"techticks-chat/internal/domain"
)

const maxSuggestions = 5

// CatalogService carga una sola vez el contenido estático y lo sirve a la UI.
type CatalogService struct {
	api    chatapi.CatalogAPI
	logger *zap.Logger

	once    sync.Once
	mu      sync.RWMutex
	catalog domain.Catalog
}

func NewCatalogService(api chatapi.CatalogAPI, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{api: api, logger: logger}
}

// Load pide proyectos, clientes, FAQs y preguntas predefinidas en paralelo.
// Cada fallo deja su sección vacía; no hay reintentos y las llamadas siguientes no vuelven a pedir nada.
// La carga no hereda la cancelación de ctx: el primer llamador puede irse antes de que termine.
func (s *CatalogService) Load(ctx context.Context) domain.Catalog {
	s.once.Do(func() {
		ctx := context.WithoutCancel(ctx)
		if s.api == nil {
			s.logger.Warn("catalog api not configured")
			return
		}
		var (
			wg  sync.WaitGroup
			cat domain.Catalog
		)
		wg.Add(4)
		go func() {
			defer wg.Done()
			cat.Projects = fetchOrEmpty(ctx, s.logger, "projects", s.api.ListProjects)
		}()
		go func() {
			defer wg.Done()
			cat.Clients = fetchOrEmpty(ctx, s.logger, "clients", s.api.ListClients)
		}()
		go func() {
			defer wg.Done()
			cat.FAQs = fetchOrEmpty(ctx, s.logger, "faqs", s.api.ListFAQs)
		}()
		go func() {
			defer wg.Done()
			cat.ReadyMadeQuestions = fetchOrEmpty(ctx, s.logger, "ready_made_questions", s.api.ReadyMadeQuestions)
		}()
		wg.Wait()

		s.mu.Lock()
		s.catalog = cat
		s.mu.Unlock()
	})
	return s.Catalog()
}

func fetchOrEmpty[T any](ctx context.Context, logger *zap.Logger, section string, fetch func(context.Context) ([]T, error)) []T {
	items, err := fetch(ctx)
	if err != nil {
		logger.Warn("catalog fetch failed", zap.String("section", section), zap.Error(err))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Catalog devuelve lo cargado hasta ahora.
func (s *CatalogService) Catalog() domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Suggest pide sugerencias al backend y, si falla, filtra las FAQs cargadas.
func (s *CatalogService) Suggest(ctx context.Context, query string) []domain.FAQ {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.FAQ{}
	}
	if s.api != nil {
		faqs, err := s.api.SuggestFAQs(ctx, query)
		if err == nil {
			return faqs
		}
		s.logger.Info("remote faq suggestions unavailable, matching locally", zap.Error(err))
	}
	return MatchFAQs(s.Catalog().FAQs, query, maxSuggestions)
}

// MatchFAQs ordena las FAQs por cantidad de palabras de la consulta que aparecen en la pregunta.
func MatchFAQs(faqs []domain.FAQ, query string, limit int) []domain.FAQ {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []domain.FAQ{}
	}

	type scored struct {
		faq   domain.FAQ
		score int
	}
	var hits []scored
	for _, f := range faqs {
		q := strings.ToLower(f.Question)
		score := 0
		for _, t := range terms {
			if strings.Contains(q, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{faq: f, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]domain.FAQ, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.faq)
	}
	return out
}

// tokenize descarta palabras de menos de tres letras ("do", "a", ...).
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			out = append(out, f)
		}
	}
	return out
}
