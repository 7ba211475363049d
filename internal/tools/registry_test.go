package tools

import (
	"context"
	"errors"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(nil)
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry(nil)

	tool := &Tool{
		Name:        "fetch_products",
		Description: "Fetch the product catalog",
		Category:    CategoryData,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "success", nil
		},
		Schema: ToolSchema{
			Required: []string{},
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("fetch_products")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "fetch_products" {
		t.Errorf("got name %q, want %q", got.Name, "fetch_products")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry(nil)

	tool := &Tool{
		Name:     "dupe",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(tool); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry(nil)

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Name: "", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "test", Execute: nil},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.tool); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetByCategory(t *testing.T) {
	reg := NewRegistry(nil)

	topic := &Tool{Name: "research_topic", Category: CategoryResearch, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }}
	tools := []*Tool{
		topic.WithPriority(80),
		{Name: "research_niche", Category: CategoryResearch, Priority: 60, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
		{Name: "render_artifact", Category: CategoryRender, Priority: 50, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
	}

	for _, tool := range tools {
		reg.MustRegister(tool)
	}
	if topic.Priority != 0 {
		t.Errorf("WithPriority mutated the original tool: %d", topic.Priority)
	}

	research := reg.GetByCategory(CategoryResearch)
	if len(research) != 2 {
		t.Errorf("expected 2 research tools, got %d", len(research))
	}

	// Should be sorted by priority (highest first)
	if research[0].Name != "research_topic" {
		t.Errorf("expected research_topic first (priority 80), got %s", research[0].Name)
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry(nil)

	tool := &Tool{
		Name:     "echo",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			msg, _ := args["message"].(string)
			return "Echo: " + msg, nil
		},
		Schema: ToolSchema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
	}

	reg.MustRegister(tool)

	// Test successful execution
	result, err := reg.Execute(context.Background(), "echo", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Result != "Echo: hello" {
		t.Errorf("got result %q, want %q", result.Result, "Echo: hello")
	}
	if !result.IsSuccess() {
		t.Error("expected IsSuccess to be true")
	}

	// Test missing required arg
	if _, err = reg.Execute(context.Background(), "echo", map[string]any{}); !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("err = %v, want ErrMissingRequiredArg", err)
	}

	// Test tool not found
	if _, err = reg.Execute(context.Background(), "nonexistent", map[string]any{}); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound", err)
	}
}

func TestExecuteArgTypeValidation(t *testing.T) {
	reg := NewRegistry(nil)

	reg.MustRegister(&Tool{
		Name:     "typed",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "ok", nil
		},
		Schema: ToolSchema{
			Required: []string{"count"},
			Properties: map[string]Property{
				"count": {Type: "number"},
				"name":  {Type: "string"},
			},
		},
	})

	if _, err := reg.Execute(context.Background(), "typed", map[string]any{"count": "three"}); !errors.Is(err, ErrInvalidArgType) {
		t.Errorf("err = %v, want ErrInvalidArgType", err)
	}
	if _, err := reg.Execute(context.Background(), "typed", map[string]any{"count": 3, "name": "x"}); err != nil {
		t.Errorf("valid args rejected: %v", err)
	}
}

func TestNames(t *testing.T) {
	reg := NewRegistry(nil)
	for _, name := range []string{"b_tool", "a_tool"} {
		reg.MustRegister(&Tool{Name: name, Category: CategoryGeneral, Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }})
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "a_tool" || names[1] != "b_tool" {
		t.Errorf("Names = %v, want sorted [a_tool b_tool]", names)
	}
}
