package service

// Engine собирает сервисы ядра в одну точку для транспортной обвязки.
type Engine struct {
	Shifts   *ShiftService
	Clock    *ClockService
	Schedule *ScheduleService
	Reports  *ReportService
}
