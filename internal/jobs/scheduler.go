// Package jobs agrupa las tareas programadas de la aplicación.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/masapan/erp-inventario/internal/application/inventory"
	"github.com/masapan/erp-inventario/pkg/config"
	"github.com/masapan/erp-inventario/pkg/logger"
)

// Scheduler corre el resumen logístico diario según la expresión cron de
// configuración (5 campos estándar).
type Scheduler struct {
	cron    *cron.Cron
	summary *inventory.LogisticsSummaryUseCase
	cfg     config.JobsConfig
	log     *logger.Logger
}

// NewScheduler construye el scheduler.
func NewScheduler(cfg config.JobsConfig, summary *inventory.LogisticsSummaryUseCase, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		summary: summary,
		cfg:     cfg,
		log:     log,
	}
}

// Start registra las tareas y arranca el cron. Con la expresión vacía el
// resumen diario queda deshabilitado.
func (s *Scheduler) Start() {
	if s.cfg.DailySummaryCron == "" {
		s.log.Info().Msg("resumen diario deshabilitado (sin expresión cron)")
		return
	}
	_, err := s.cron.AddFunc(s.cfg.DailySummaryCron, s.runDailySummary)
	if err != nil {
		s.log.Error().Err(err).
			Str("cron", s.cfg.DailySummaryCron).
			Msg("no se pudo programar el resumen diario")
		return
	}
	s.log.Info().Str("cron", s.cfg.DailySummaryCron).Msg("scheduler iniciado")
	s.cron.Start()
}

// Stop detiene el cron esperando a que terminen las tareas en curso.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler detenido")
}

func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := s.summary.Daily(ctx, time.Time{}, time.Time{}, "")
	if err != nil {
		s.log.Error().Err(err).Msg("resumen diario falló")
		return
	}

	s.log.Info().
		Time("from", res.From).
		Time("to", res.To).
		Int("productos", len(res.Products)).
		Str("producido", res.Global.Producido.String()).
		Str("vendido", res.Global.Vendido.String()).
		Str("merma", res.Global.Merma.String()).
		Str("merma_pct", res.Global.MermaPct.String()).
		Msg("resumen logístico diario")
}
