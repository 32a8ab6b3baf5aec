package handlers

import (
	"cdn-metrics-dashboard/services"
)

type Handler struct {
	Board    *services.Board
	Upstream *services.UpstreamClient
	Health   *services.HealthMonitor
	SysInfo  *services.SysInfoService
}

func NewHandler(board *services.Board, upstream *services.UpstreamClient, health *services.HealthMonitor, sysInfo *services.SysInfoService) *Handler {
	return &Handler{Board: board, Upstream: upstream, Health: health, SysInfo: sysInfo}
}
