package planner

import (
	"strings"
	"testing"

	"github.com/jpixy/media-organizer/internal/model"
)

func TestBuildMoviePlanEmitsMkdirMoveAndNfoOps(t *testing.T) {
	movies := []ResolvedMovie{
		{
			Video: model.VideoFile{Path: "/src/Arrival.2016.mkv", Name: "Arrival.2016.mkv"},
			Meta: &model.MovieMeta{
				Title: "Arrival", Year: 2016, TmdbID: 329865,
				OriginalLanguage: "en",
			},
		},
	}

	plan, err := BuildMoviePlan(movies, nil, Options{TargetRoot: "/lib", GenerateNFO: true})
	if err != nil {
		t.Fatalf("BuildMoviePlan: %v", err)
	}
	if len(plan.Unknown) != 0 {
		t.Fatalf("expected no unknowns, got %v", plan.Unknown)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(plan.Items))
	}

	ops := plan.Items[0].Operations
	if len(ops) != 3 {
		t.Fatalf("expected Mkdir+Move+Create(nfo), got %d: %+v", len(ops), ops)
	}
	if ops[0].Op != model.OpMkdir || ops[1].Op != model.OpMove {
		t.Fatalf("unexpected op ordering: %+v", ops)
	}
	if ops[2].Op != model.OpCreate || ops[2].ContentRef != "nfo" {
		t.Fatalf("expected movie.nfo create op, got %+v", ops[2])
	}
}

func TestBuildShowPlanEmitsShowAndPerEpisodeNfoOps(t *testing.T) {
	show := &model.ShowMeta{Name: "Severance", Year: 2022, TmdbID: 95396, OriginalLanguage: "en"}
	episodes := []ResolvedEpisode{
		{
			Video:   model.VideoFile{Path: "/src/Severance.S01E01.mkv", Name: "Severance.S01E01.mkv"},
			Show:    show,
			Episode: &model.EpisodeMeta{SeasonNumber: 1, EpisodeNumber: 1, Name: "Good News About Hell"},
		},
	}

	plan, err := BuildShowPlan(episodes, nil, Options{TargetRoot: "/lib", GenerateNFO: true})
	if err != nil {
		t.Fatalf("BuildShowPlan: %v", err)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(plan.Items))
	}

	ops := plan.Items[0].Operations
	var sawShowNfo, sawEpisodeNfo bool
	for _, op := range ops {
		if op.Op != model.OpCreate {
			continue
		}
		switch op.ContentRef {
		case "nfo":
			sawShowNfo = true
			if !strings.HasSuffix(op.To, "tvshow.nfo") {
				t.Errorf("expected show nfo path to end in tvshow.nfo, got %s", op.To)
			}
		case "episode-nfo":
			sawEpisodeNfo = true
			if !strings.HasSuffix(op.To, ".nfo") || strings.HasSuffix(op.To, "tvshow.nfo") {
				t.Errorf("expected per-episode nfo path, got %s", op.To)
			}
		}
	}
	if !sawShowNfo {
		t.Errorf("expected a tvshow.nfo Create op, got %+v", ops)
	}
	if !sawEpisodeNfo {
		t.Errorf("expected a per-episode nfo Create op, got %+v", ops)
	}
}

func TestCheckDuplicateTargetsRejectsSharedMoveDestination(t *testing.T) {
	items := []model.PlanItem{
		{ID: "a", Operations: []model.Operation{{Op: model.OpMove, From: "/src/a.mkv", To: "/lib/same.mkv"}}},
		{ID: "b", Operations: []model.Operation{{Op: model.OpMove, From: "/src/b.mkv", To: "/lib/same.mkv"}}},
	}
	if err := checkDuplicateTargets(items); err == nil {
		t.Fatal("expected duplicate target error")
	}
}
