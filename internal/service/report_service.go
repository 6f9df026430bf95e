package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/datatypes"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/cache"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/repository"
	"github.com/cleanshift/core/internal/schedule"
)

// Итог по группе (сотрудник или объект).
type ReportGroup struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Minutes int       `json:"minutes"`
	// Смены группы, попавшие в период по дате.
	JobsCount int `json:"jobs_count"`
	// Смены, по которым отработана хотя бы минута.
	LoggedJobs int `json:"logged_jobs"`
}

// Строка детализации: одна закрытая запись времени.
type ReportEntry struct {
	LogID      uuid.UUID `json:"log_id"`
	JobID      uuid.UUID `json:"job_id"`
	SiteName   string    `json:"site_name"`
	WorkerName string    `json:"worker_name"`
	StartedAt  time.Time `json:"started_at"`
	StoppedAt  time.Time `json:"stopped_at"`
	Minutes    int       `json:"minutes"`
}

// Report — свод отработанного времени за период.
type Report struct {
	DateFrom     string        `json:"date_from"`
	DateTo       string        `json:"date_to"`
	TotalMinutes int           `json:"total_minutes"`
	JobsCount    int           `json:"jobs_count"`
	ByWorker     []ReportGroup `json:"by_worker"`
	BySite       []ReportGroup `json:"by_site"`
	Entries      []ReportEntry `json:"entries"`
}

// ReportService сводит смены и записи времени в зарплатный отчёт.
type ReportService struct {
	dir     identity.Directory
	jobs    repository.JobRepository
	sites   repository.SiteRepository
	workers repository.WorkerRepository
	logs    repository.TimeLogRepository
	cache   *cache.ReportCache
	logger  *zap.Logger

	collator *collate.Collator
}

func NewReportService(
	dir identity.Directory,
	jobs repository.JobRepository,
	sites repository.SiteRepository,
	workers repository.WorkerRepository,
	logs repository.TimeLogRepository,
	reportCache *cache.ReportCache,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		dir:      dir,
		jobs:     jobs,
		sites:    sites,
		workers:  workers,
		logs:     logs,
		cache:    reportCache,
		logger:   logger,
		collator: collate.New(language.Und),
	}
}

// GetReport строит отчёт за [dateFrom, dateTo]. Смены отбираются по
// job_date; минуты — по записям, СТАРТОВАВШИМ внутри периода (запись,
// начатая вне периода, не попадает в минуты, но её смена остаётся в
// jobs_count). Сотрудник получает отчёт только по себе.
func (s *ReportService) GetReport(ctx context.Context, credential string, dateFrom, dateTo string) (*Report, error) {
	caller, err := authActive(ctx, s.dir, credential)
	if err != nil {
		return nil, err
	}

	from, err := schedule.ParseDate(dateFrom)
	if err != nil {
		return nil, apperr.Validationf("date_from: %v", err)
	}
	to, err := schedule.ParseDate(dateTo)
	if err != nil {
		return nil, apperr.Validationf("date_to: %v", err)
	}
	if to.Before(from) {
		from, to = to, from
	}

	var workerScope *uuid.UUID
	scope := "all"
	if caller.Role != identity.RoleAdmin {
		workerScope = &caller.UserID
		scope = caller.UserID.String()
	}

	key := fmt.Sprintf("report:%s:%s:%s", schedule.FormatDate(from), schedule.FormatDate(to), scope)
	var cached Report
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	jobs, err := s.jobs.ListByRange(ctx, repository.JobFilter{
		From:     datatypes.Date(from),
		To:       datatypes.Date(to),
		WorkerID: workerScope,
	})
	if err != nil {
		return nil, apperr.Storef(err, "list jobs")
	}

	window := schedule.DayRange(from, to)
	logs, err := s.logs.ListByStartedRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, apperr.Storef(err, "list time logs")
	}

	rep, err := s.buildReport(ctx, from, to, jobs, logs)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, rep)
	return rep, nil
}

func (s *ReportService) buildReport(ctx context.Context, from, to time.Time, jobs []model.Job, logs []model.TimeLog) (*Report, error) {
	jobByID := make(map[uuid.UUID]*model.Job, len(jobs))
	siteIDs := map[uuid.UUID]struct{}{}
	workerIDs := map[uuid.UUID]struct{}{}
	for i := range jobs {
		j := &jobs[i]
		jobByID[j.ID] = j
		siteIDs[j.SiteID] = struct{}{}
		if j.WorkerID != nil {
			workerIDs[*j.WorkerID] = struct{}{}
		}
	}

	// Минуты по сменам: сумма закрытых записей с неотрицательной
	// длительностью. Открытые записи дают 0.
	minutesByJob := map[uuid.UUID]int{}
	var closed []model.TimeLog
	for _, l := range logs {
		if _, ok := jobByID[l.JobID]; !ok {
			continue // запись чужой смены (вне периода по дате или вне скоупа)
		}
		if l.StoppedAt == nil {
			continue
		}
		minutesByJob[l.JobID] += schedule.MinutesBetween(l.StartedAt, *l.StoppedAt)
		closed = append(closed, l)
	}

	siteNames := map[uuid.UUID]string{}
	workerNames := map[uuid.UUID]string{}
	{
		sites, err := s.sites.ListByIDs(ctx, keys(siteIDs))
		if err != nil {
			return nil, apperr.Storef(err, "list sites")
		}
		for _, st := range sites {
			siteNames[st.ID] = st.Name
		}
		workers, err := s.workers.ListByIDs(ctx, keys(workerIDs))
		if err != nil {
			return nil, apperr.Storef(err, "list workers")
		}
		for _, w := range workers {
			workerNames[w.ID] = w.DisplayName
		}
	}

	byWorker := map[uuid.UUID]*ReportGroup{}
	bySite := map[uuid.UUID]*ReportGroup{}
	total := 0

	for _, j := range jobs {
		minutes := minutesByJob[j.ID]
		total += minutes

		sg := bySite[j.SiteID]
		if sg == nil {
			sg = &ReportGroup{ID: j.SiteID, Name: siteNames[j.SiteID]}
			bySite[j.SiteID] = sg
		}
		sg.Minutes += minutes
		sg.JobsCount++
		if minutes > 0 {
			sg.LoggedJobs++
		}

		if j.WorkerID == nil {
			continue // свободная смена: в разрез по сотрудникам не входит
		}
		wg := byWorker[*j.WorkerID]
		if wg == nil {
			wg = &ReportGroup{ID: *j.WorkerID, Name: workerNames[*j.WorkerID]}
			byWorker[*j.WorkerID] = wg
		}
		wg.Minutes += minutes
		wg.JobsCount++
		if minutes > 0 {
			wg.LoggedJobs++
		}
	}

	entries := make([]ReportEntry, 0, len(closed))
	for _, l := range closed {
		j := jobByID[l.JobID]
		e := ReportEntry{
			LogID:     l.ID,
			JobID:     l.JobID,
			SiteName:  siteNames[j.SiteID],
			StartedAt: l.StartedAt,
			StoppedAt: *l.StoppedAt,
			Minutes:   schedule.MinutesBetween(l.StartedAt, *l.StoppedAt),
		}
		e.WorkerName = workerNames[l.WorkerID]
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, k int) bool {
		return entries[i].StartedAt.Before(entries[k].StartedAt)
	})

	return &Report{
		DateFrom:     schedule.FormatDate(from),
		DateTo:       schedule.FormatDate(to),
		TotalMinutes: total,
		JobsCount:    len(jobs),
		ByWorker:     s.sortGroups(byWorker),
		BySite:       s.sortGroups(bySite),
		Entries:      entries,
	}, nil
}

// sortGroups — контракт сортировки разрезов: минуты по убыванию,
// при равенстве — имя по возрастанию (языковое сравнение строк).
func (s *ReportService) sortGroups(groups map[uuid.UUID]*ReportGroup) []ReportGroup {
	out := make([]ReportGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Minutes != out[k].Minutes {
			return out[i].Minutes > out[k].Minutes
		}
		return s.collator.CompareString(out[i].Name, out[k].Name) < 0
	})
	return out
}
