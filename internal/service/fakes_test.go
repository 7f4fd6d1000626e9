package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"app/internal/model"
)

// fakePlanRepo backs quota tests without a database.
type fakePlanRepo struct {
	active     *model.ActivePlan
	plans      map[string]*model.Plan
	subscribed []string
}

func newFakePlanRepo(plan *model.Plan) *fakePlanRepo {
	f := &fakePlanRepo{plans: map[string]*model.Plan{}}
	if plan != nil {
		f.plans[plan.ID] = plan
		f.active = &model.ActivePlan{
			UserPlan: model.UserPlan{ID: "up1", UserID: "u1", PlanID: plan.ID, StartedAt: time.Now()},
			Plan:     *plan,
		}
	}
	return f
}

func (f *fakePlanRepo) GetActivePlan(ctx context.Context, userID string) (*model.ActivePlan, error) {
	return f.active, nil
}

func (f *fakePlanRepo) ListPlans(ctx context.Context) ([]model.Plan, error) {
	var out []model.Plan
	for _, p := range f.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlanRepo) GetPlanByID(ctx context.Context, planID string) (*model.Plan, error) {
	return f.plans[planID], nil
}

func (f *fakePlanRepo) GetPlanByName(ctx context.Context, name string) (*model.Plan, error) {
	for _, p := range f.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePlanRepo) ChangePlan(ctx context.Context, userID, planID string) (*model.UserPlan, error) {
	up := &model.UserPlan{ID: "up-new", UserID: userID, PlanID: planID, StartedAt: time.Now()}
	f.active = &model.ActivePlan{UserPlan: *up, Plan: *f.plans[planID]}
	return up, nil
}

func (f *fakePlanRepo) SubscribeDefault(ctx context.Context, userID, planID string) error {
	f.subscribed = append(f.subscribed, userID)
	if f.active == nil {
		f.active = &model.ActivePlan{
			UserPlan: model.UserPlan{ID: "up1", UserID: userID, PlanID: planID, StartedAt: time.Now()},
			Plan:     *f.plans[planID],
		}
	}
	return nil
}

// fakeUsageRepo is an in-memory consumption ledger.
type fakeUsageRepo struct {
	entries   []model.UsageLog
	storageMB float64
	aiCalls   int
	lastSince time.Time
}

func (f *fakeUsageRepo) InsertUsage(ctx context.Context, entry *model.UsageLog) error {
	entry.ID = "ul" + strconv.Itoa(len(f.entries)+1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeUsageRepo) SumStorageSizeMB(ctx context.Context, userID string) (float64, error) {
	return f.storageMB, nil
}

func (f *fakeUsageRepo) CountAICallsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	f.lastSince = since
	return f.aiCalls, nil
}

// fakeProjectRepo is an in-memory ProjectRepository.
type fakeProjectRepo struct {
	projects map[string]*model.Project
	nextID   int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[string]*model.Project{}}
}

func (f *fakeProjectRepo) CreateProject(ctx context.Context, p *model.Project) error {
	f.nextID++
	p.ID = "p" + strconv.Itoa(f.nextID)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjectRepo) GetProjectByID(ctx context.Context, projectID string) (*model.Project, error) {
	p, ok := f.projects[projectID]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) GetProjectsByUserID(ctx context.Context, userID string) ([]model.Project, error) {
	out := []model.Project{}
	for _, p := range f.projects {
		if p.UserID == userID && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) UpdateStoragePath(ctx context.Context, projectID, storagePath string) error {
	p, ok := f.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s not found", projectID)
	}
	p.StoragePath = storagePath
	return nil
}

func (f *fakeProjectRepo) UpdateProject(ctx context.Context, p *model.Project) error {
	stored, ok := f.projects[p.ID]
	if !ok {
		return fmt.Errorf("project %s not found", p.ID)
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.UpdatedAt = time.Now()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeProjectRepo) SoftDeleteProject(ctx context.Context, projectID string) error {
	p, ok := f.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s not found", projectID)
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

// fakeOperationRepo is an in-memory append-only operation log.
type fakeOperationRepo struct {
	ops []model.Operation
}

func (f *fakeOperationRepo) CreateOperation(ctx context.Context, op *model.Operation) error {
	op.ID = "op" + strconv.Itoa(len(f.ops)+1)
	op.CreatedAt = time.Now()
	f.ops = append(f.ops, *op)
	return nil
}

func (f *fakeOperationRepo) GetOperationsByProjectID(ctx context.Context, projectID string) ([]model.Operation, error) {
	out := []model.Operation{}
	for _, op := range f.ops {
		if op.ProjectID == projectID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (f *fakeOperationRepo) GetLatestOperation(ctx context.Context, projectID string) (*model.Operation, error) {
	for i := len(f.ops) - 1; i >= 0; i-- {
		if f.ops[i].ProjectID == projectID {
			cp := f.ops[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOperationRepo) CountOperationsByProjectID(ctx context.Context, projectID string) (int, error) {
	n := 0
	for _, op := range f.ops {
		if op.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

// fakeAIModelRepo serves a fixed model catalogue.
type fakeAIModelRepo struct {
	models map[string]*model.AIModel
}

func (f *fakeAIModelRepo) ListActiveModels(ctx context.Context) ([]model.AIModel, error) {
	var out []model.AIModel
	for _, m := range f.models {
		if m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeAIModelRepo) GetModelByID(ctx context.Context, modelID string) (*model.AIModel, error) {
	return f.models[modelID], nil
}

// fakeAIService returns a canned action and counts invocations.
type fakeAIService struct {
	action *model.EditAction
	err    error
	calls  int
}

func (f *fakeAIService) Interpret(ctx context.Context, userID, instruction, modelID string) (*model.EditAction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.action, nil
}

func (f *fakeAIService) ListModels(ctx context.Context) ([]model.AIModel, error) {
	return nil, nil
}

// fakePublisher records published topics.
type fakePublisher struct {
	topics []string
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	f.topics = append(f.topics, topic)
	return "msg1", nil
}
