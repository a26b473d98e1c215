package fqn

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		project, relPath, name, want string
	}{
		{"shop", "app.py", "get_user", "shop.app.get_user"},
		{"shop", "api/users.py", "get_user", "shop.api.users.get_user"},
		{"shop", "api/__init__.py", "create_app", "shop.api.create_app"},
		{"", "app.py", "health", "app.health"},
		{"shop", "", "orphan", "shop.orphan"},
	}
	for _, tt := range tests {
		if got := Compute(tt.project, tt.relPath, tt.name); got != tt.want {
			t.Errorf("Compute(%q, %q, %q) = %q, want %q", tt.project, tt.relPath, tt.name, got, tt.want)
		}
	}
}

func TestModuleQN(t *testing.T) {
	if got := ModuleQN("shop", "api/v1/orders.py"); got != "shop.api.v1.orders" {
		t.Errorf("ModuleQN = %q", got)
	}
	if got := ModuleQN("shop", "__init__.py"); got != "shop" {
		t.Errorf("package root ModuleQN = %q, want shop", got)
	}
}
