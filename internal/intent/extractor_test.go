package intent

import (
	"reflect"
	"testing"
)

func mustLookup(t *testing.T, name string) Definition {
	t.Helper()
	def, ok := DefaultCatalog().Lookup(name)
	if !ok {
		t.Fatalf("intent %s not in default catalog", name)
	}
	return def
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		intent string
		text   string
		want   map[string]string
	}{
		{
			name:   "package name after install",
			intent: "install_package",
			text:   "Install nginx on Ubuntu",
			want:   map[string]string{"package": "nginx"},
		},
		{
			name:   "package name before package keyword",
			intent: "install_package",
			text:   "add the htop package please",
			want:   map[string]string{"package": "htop"},
		},
		{
			name:   "port and protocol",
			intent: "configure_firewall",
			text:   "open port 8080 tcp on rhel",
			want:   map[string]string{"port": "8080", "protocol": "tcp"},
		},
		{
			name:   "port without protocol",
			intent: "configure_firewall",
			text:   "allow port 443",
			want:   map[string]string{"port": "443"},
		},
		{
			name:   "username",
			intent: "create_user",
			text:   "create user john on centos",
			want:   map[string]string{"username": "john"},
		},
		{
			name:   "username from account phrasing",
			intent: "create_user",
			text:   "setup account for deploy-bot",
			want:   map[string]string{"username": "deploy-bot"},
		},
		{
			name:   "container with derived image and port",
			intent: "deploy_docker",
			text:   "deploy redis container",
			want: map[string]string{
				"container": "redis",
				"image":     "redis:latest",
				"port":      "6379",
			},
		},
		{
			name:   "unknown container falls back to latest tag",
			intent: "deploy_docker",
			text:   "run myapp in docker",
			want: map[string]string{
				"container": "myapp",
				"image":     "myapp:latest",
			},
		},
		{
			name:   "service with derived port",
			intent: "restart_service",
			text:   "restart mysql service",
			want:   map[string]string{"service": "mysql", "port": "3306"},
		},
		{
			name:   "service without known port",
			intent: "restart_service",
			text:   "reload the haproxy service",
			want:   map[string]string{"service": "haproxy"},
		},
		{
			name:   "config file",
			intent: "update_config",
			text:   "update config /etc/nginx/nginx.conf",
			want:   map[string]string{"config_file": "/etc/nginx/nginx.conf"},
		},
		{
			name:   "nothing recognized is not an error",
			intent: "install_package",
			text:   "please handle the usual",
			want:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := mustLookup(t, tt.intent)
			got := Extract(tt.text, def)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q, %s) = %v, want %v", tt.text, tt.intent, got, tt.want)
			}
		})
	}
}

func TestExtractOnlyDeclaredParams(t *testing.T) {
	// The firewall intent declares port and protocol; a username in the same
	// text must not leak into its parameter map.
	def := mustLookup(t, "configure_firewall")
	got := Extract("open port 22 for user john", def)

	if _, leaked := got["username"]; leaked {
		t.Errorf("undeclared parameter extracted: %v", got)
	}
	if got["port"] != "22" {
		t.Errorf("port = %q, want 22", got["port"])
	}
}

func TestExtractFirstRecognizerWins(t *testing.T) {
	// Both package recognizers match here with different captures; the
	// first-registered one must win deterministically.
	def := mustLookup(t, "install_package")
	got := Extract("install nginx and the vim package", def)
	if got["package"] != "nginx" {
		t.Errorf("package = %q, want nginx (first recognizer)", got["package"])
	}
}

func TestDetectOS(t *testing.T) {
	tests := []struct {
		text string
		want OSTarget
	}{
		{"Install nginx on Ubuntu", OSDebianFamily},
		{"install nginx on debian 12", OSDebianFamily},
		{"open port 8080 on RHEL", OSRedHatFamily},
		{"create user john on CentOS", OSRedHatFamily},
		{"patch rocky linux hosts", OSRedHatFamily},
		{"update almalinux boxes", OSRedHatFamily},
		{"deploy redis container on Fedora", OSFedora},
		{"install curl on any os", OSAll},
		{"install curl", OSUnspecified},
		{"", OSUnspecified},
	}

	for _, tt := range tests {
		if got := DetectOS(tt.text); got != tt.want {
			t.Errorf("DetectOS(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
