package demo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"cdn-metrics-dashboard/models"
	"cdn-metrics-dashboard/system"
)

// Server is an embedded stand-in for the provider statistics backend.
// It answers the same endpoints with the same JSON, from a seeded
// sqlite file, so the dashboard runs without any external dependency.
type Server struct {
	db   *gorm.DB
	app  *fiber.App
	addr string
}

func NewServer(cfg system.DemoConfig) (*Server, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open demo database: %w", err)
	}

	if err := db.AutoMigrate(
		&Client{},
		&Host{},
		&MonthlyStat{},
		&DailyEvent{},
		&TopSample{},
		&SecurityAnalysis{},
	); err != nil {
		return nil, fmt.Errorf("demo database migration failed: %w", err)
	}

	if err := Seed(db); err != nil {
		return nil, fmt.Errorf("demo seed failed: %w", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s := &Server{
		db:   db,
		app:  app,
		addr: fmt.Sprintf("127.0.0.1:%d", cfg.Port),
	}

	app.Get("/initializing", s.getInitializing)
	app.Get("/clientes", s.getClients)
	app.Get("/hosts/:client", s.getHosts)
	app.Get("/stats/:accountId", s.getStats)
	app.Get("/security_analysis/:client", s.getSecurityAnalysis)
	app.Get("/graph-attack/:client", s.getGraphAttack)
	app.Get("/graph-sec/:client", s.getGraphSec)
	app.Get("/graph-summary/:client", s.getGraphSummary)
	app.Get("/graph-data/:client", s.getGraphData)
	app.Get("/graph-datasec/:client", s.getGraphDataSec)
	app.Get("/top5-sec/:client", s.getTop5)
	app.Get("/api/certificates/expirations/:accountId", s.getCertRefresh)

	return s, nil
}

// Start serves the demo backend on loopback in the background.
func (s *Server) Start() {
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			system.Error("Demo backend stopped: %v", err)
		}
	}()
	system.Info("Demo backend listening on %s", s.addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// BaseURL is what the upstream client should point at.
func (s *Server) BaseURL() string {
	return "http://" + s.addr
}

func (s *Server) getInitializing(c *fiber.Ctx) error {
	var clients []Client
	if err := s.db.Order("client_name").Find(&clients).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	var stats []MonthlyStat
	s.db.Order("month_year desc").Find(&stats)

	snap := models.InitSnapshot{
		Clients:     make([]models.Client, len(clients)),
		Stats:       make([]models.IngestStat, len(stats)),
		Performance: []models.CollectionMark{{CreatedAt: time.Now().UTC().Format("2006-01-02 15:04:05")}},
	}
	for i, cl := range clients {
		snap.Clients[i] = wireClient(cl)
	}
	for i, st := range stats {
		snap.Stats[i] = models.IngestStat{MonthYear: st.MonthYear, LineCount: st.TotalRequests / 1000}
	}
	return c.JSON(snap)
}

func (s *Server) getClients(c *fiber.Ctx) error {
	var clients []Client
	if err := s.db.Order("client_name").Find(&clients).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]models.Client, len(clients))
	for i, cl := range clients {
		out[i] = wireClient(cl)
	}
	return c.JSON(out)
}

func (s *Server) getHosts(c *fiber.Ctx) error {
	var hosts []Host
	if err := s.db.Where("client_name = ?", c.Params("client")).Order("total_requests desc").Find(&hosts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]models.Host, len(hosts))
	for i, h := range hosts {
		accel, latency := h.AccelerationPercentage, h.LatencyImprovement
		out[i] = models.Host{
			Name:                   h.Name,
			TotalRequests:          h.TotalRequests,
			CacheHit:               h.CacheHit,
			OriginFetch:            h.OriginFetch,
			AccelerationPercentage: &accel,
			LatencyImprovement:     &latency,
			CertExpiry:             h.CertExpiry,
		}
	}
	return c.JSON(out)
}

func (s *Server) getStats(c *fiber.Ctx) error {
	var stats []MonthlyStat
	if err := s.db.Where("account_id = ?", c.Params("accountId")).Order("month_year desc").Find(&stats).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]models.MonthlyStats, len(stats))
	for i, st := range stats {
		out[i] = models.MonthlyStats{
			ID:               int64(st.ID),
			MonthYear:        st.MonthYear,
			TotalRequests:    st.TotalRequests,
			BandwidthUsed:    st.BandwidthUsed,
			UniqueVisits:     st.UniqueVisits,
			PageViews:        st.PageViews,
			CachePercentage:  st.CachePercentage,
			OriginPercentage: st.OriginPercentage,
		}
	}
	return c.JSON(out)
}

func (s *Server) getSecurityAnalysis(c *fiber.Ctx) error {
	var rows []SecurityAnalysis
	if err := s.db.Where("client_name = ?", c.Params("client")).Order("created_at").Find(&rows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	out := make([]models.SecurityAnalysis, len(rows))
	for i, r := range rows {
		out[i] = models.SecurityAnalysis{
			CreatedAt:       r.CreatedAt,
			RequestsTotal:   r.RequestsTotal,
			ValidRequests:   r.ValidRequests,
			TotalMitigated:  r.TotalMitigated,
			BlockedRequests: r.BlockedRequests,
		}
	}
	return c.JSON(out)
}

func (s *Server) getGraphAttack(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	events, ok := s.events(client, monthRef, KindCountry)
	if !ok {
		return c.JSON(models.AttackResponse{Message: "No data for the selected period"})
	}

	resp := models.AttackResponse{
		Success:       true,
		Data:          make([]models.AttackEvent, len(events)),
		TotalRequests: strconv.FormatInt(s.monthTotal(client, monthRef), 10),
	}
	for i, e := range events {
		resp.Data[i] = models.AttackEvent{
			TS:         e.TS,
			Country:    e.Category,
			EventCount: strconv.FormatInt(e.Count, 10),
			AccountID:  e.AccountID,
		}
	}

	var samples []TopSample
	s.db.Where("client_name = ? AND month_ref = ? AND dimension = ?", client, monthRef, "countries").
		Order("rank").Find(&samples)
	for _, sm := range samples {
		resp.Top5Countries = append(resp.Top5Countries, models.CountryStat{
			Country:    sm.Value,
			Total:      strconv.FormatInt(sm.Count, 10),
			Percentage: sm.Percentage,
		})
	}
	return c.JSON(resp)
}

func (s *Server) getGraphSec(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	events, ok := s.events(client, monthRef, KindClassification)
	if !ok {
		return c.JSON(models.SecurityResponse{Message: "No data for the selected period"})
	}

	resp := models.SecurityResponse{Success: true, Data: make(map[string]models.ClassifiedDay)}
	for _, e := range events {
		day := resp.Data[e.TS]
		switch e.Category {
		case "attack":
			day.Attack.Count += e.Count
			resp.Totals.Attack += e.Count
		case "likely_attack":
			day.LikelyAttack.Count += e.Count
			resp.Totals.LikelyAttack += e.Count
		case "likely_clean":
			day.LikelyClean.Count += e.Count
			resp.Totals.LikelyClean += e.Count
		case "clean":
			day.Clean.Count += e.Count
			resp.Totals.Clean += e.Count
		}
		resp.Data[e.TS] = day
	}
	resp.Summary.TotalRequests = resp.Totals.Attack + resp.Totals.LikelyAttack +
		resp.Totals.LikelyClean + resp.Totals.Clean
	return c.JSON(resp)
}

func (s *Server) getGraphSummary(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	events, ok := s.events(client, monthRef, KindAction)
	if !ok {
		return c.JSON(models.SummaryResponse{Message: "No data for the selected period"})
	}

	resp := models.SummaryResponse{
		Success:       true,
		Data:          make([]models.MetricEvent, len(events)),
		TotalRequests: s.monthTotal(client, monthRef),
	}
	for i, e := range events {
		resp.Data[i] = models.MetricEvent{TS: e.TS, Metric: e.Category, Count: e.Count}
		switch e.Category {
		case "block":
			resp.TotalBlock += e.Count
		case "managed_challenge":
			resp.TotalManaged += e.Count
		case "jschallenge":
			resp.TotalJSChallenge += e.Count
		case "log":
			resp.TotalLog += e.Count
		case "skip":
			resp.TotalSkip += e.Count
		}
	}
	return c.JSON(resp)
}

func (s *Server) getGraphData(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	events, ok := s.events(client, monthRef, KindDelivery)
	if !ok {
		return c.JSON(models.BandwidthResponse{Message: "No data for the selected period"})
	}

	resp := models.BandwidthResponse{Success: true, Data: make([]models.TypedEvent, len(events))}
	for i, e := range events {
		resp.Data[i] = models.TypedEvent{TS: e.TS, Type: e.Category, Count: e.Count}
	}
	return c.JSON(resp)
}

func (s *Server) getGraphDataSec(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	events, ok := s.events(client, monthRef, KindSecurity)
	if !ok {
		return c.JSON(models.DataSecResponse{Message: "No data for the selected period"})
	}

	resp := models.DataSecResponse{
		Success:       true,
		Data:          make([]models.SecEvent, len(events)),
		RequestsTotal: s.monthTotal(client, monthRef),
	}
	for i, e := range events {
		resp.Data[i] = models.SecEvent{TS: e.TS, EventType: e.Category, EventCount: e.Count}
		switch e.Category {
		case "mitigated":
			resp.MitigatedRequests += e.Count
		case "managed":
			resp.TotalManaged += e.Count
		case "interactive":
			resp.TotalChallenge += e.Count
		}
	}
	mitigated := resp.MitigatedRequests + resp.TotalManaged + resp.TotalChallenge
	resp.ValidRequests = resp.RequestsTotal - mitigated
	if resp.RequestsTotal > 0 {
		resp.BlockedPercentage = float64(mitigated) / float64(resp.RequestsTotal) * 100
	}
	return c.JSON(resp)
}

func (s *Server) getTop5(c *fiber.Ctx) error {
	client, monthRef := c.Params("client"), c.Query("monthRef")
	var samples []TopSample
	s.db.Where("client_name = ? AND month_ref = ?", client, monthRef).
		Order("dimension, rank").Find(&samples)
	if len(samples) == 0 {
		return c.JSON(models.Top5Response{Message: "No data for the selected period"})
	}

	byDim := make(map[string][]models.Top5Item)
	for _, sm := range samples {
		byDim[sm.Dimension] = append(byDim[sm.Dimension], models.Top5Item{
			Value:             sm.Value,
			Count:             sm.Count,
			Percentage:        sm.Percentage,
			AvgSampleInterval: sm.AvgSampleInterval,
		})
	}

	return c.JSON(models.Top5Response{
		Success: true,
		Data: models.Top5Breakdowns{
			TopCountries:   byDim["countries"],
			TopASNs:        byDim["asns"],
			TopUserAgents:  byDim["userAgents"],
			TopURIPaths:    byDim["uriPaths"],
			TopHosts:       byDim["hosts"],
			TopIPs:         byDim["ips"],
			TopHTTPMethods: byDim["httpMethods"],
		},
		TotalRequests: s.monthTotal(client, monthRef),
		Period:        monthRef,
		AccountID:     s.accountFor(client),
	})
}

func (s *Server) getCertRefresh(c *fiber.Ctx) error {
	var count int64
	s.db.Model(&Host{}).Where("account_id = ?", c.Params("accountId")).Count(&count)
	return c.JSON(models.CertRefreshResult{
		Success: true,
		Message: "Certificate expirations refreshed",
		Updated: count,
	})
}

func (s *Server) events(client, monthRef, kind string) ([]DailyEvent, bool) {
	var events []DailyEvent
	s.db.Where("client_name = ? AND month_ref = ? AND kind = ?", client, monthRef, kind).
		Order("id").Find(&events)
	return events, len(events) > 0
}

func (s *Server) monthTotal(client, monthRef string) int64 {
	var stat MonthlyStat
	t, err := time.Parse("01-2006", monthRef)
	if err != nil {
		return 0
	}
	s.db.Where("account_id = ? AND month_year = ?", s.accountFor(client), t.Format("2006-01-02")).
		First(&stat)
	return stat.TotalRequests
}

func (s *Server) accountFor(clientName string) string {
	var client Client
	s.db.Where("client_name = ?", clientName).First(&client)
	return client.AccountID
}

func wireClient(c Client) models.Client {
	return models.Client{AccountID: c.AccountID, ClientName: c.ClientName, CreatedAt: c.CreatedAt}
}
