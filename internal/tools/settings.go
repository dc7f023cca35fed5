package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/fm-prefs/internal/settings"
)

// Preferences is the part of settings.Cache the tools drive.
type Preferences interface {
	GetValue(key string) settings.Value
	IsExist(key string) bool
	SetValue(key string, v settings.Value)
	Reset(key string)
	ResetAll()
	ForceSync(key string)
	Keys() []string
	SystemTimeFormat() string
}

type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

type getResult struct {
	Key    string         `json:"key"`
	Exists bool           `json:"exists"`
	Value  settings.Value `json:"value"`
}

// SettingsGetHandler returns the MCP tool handler for the "settings-get" tool.
func SettingsGetHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := json.Marshal(getResult{Key: key, Exists: prefs.IsExist(key), Value: prefs.GetValue(key)})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// SettingsSetHandler returns the MCP tool handler for the "settings-set" tool.
// The value is either the JSON wire form or a bare literal.
func SettingsSetHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v := settings.ParseValue(raw)
		prefs.SetValue(key, v)
		return mcp.NewToolResultText(fmt.Sprintf("%s = %s (%s)", key, v, v.Kind())), nil
	}
}

// SettingsResetHandler returns the MCP tool handler for the "settings-reset" tool.
func SettingsResetHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prefs.Reset(key)
		return mcp.NewToolResultText("reset " + key), nil
	}
}

// SettingsResetAllHandler returns the MCP tool handler for the "settings-reset-all" tool.
func SettingsResetAllHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := len(prefs.Keys())
		prefs.ResetAll()
		return mcp.NewToolResultText(fmt.Sprintf("reset %d settings", n)), nil
	}
}

// SettingsListHandler returns the MCP tool handler for the "settings-list" tool.
func SettingsListHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(FormatSettings(prefs)), nil
	}
}

// SettingsSyncHandler returns the MCP tool handler for the "settings-sync" tool.
func SettingsSyncHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		key := req.GetString("key", "")
		prefs.ForceSync(key)
		if key == "" {
			return mcp.NewToolResultText(fmt.Sprintf("reloaded %d settings", len(prefs.Keys()))), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s = %s", key, prefs.GetValue(key))), nil
	}
}

// SystemTimeFormatHandler returns the MCP tool handler for the "system-time-format" tool.
func SystemTimeFormatHandler(prefs Preferences) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(prefs.SystemTimeFormat()), nil
	}
}

// FormatSettings renders one "key = value (kind)" line per cached key.
func FormatSettings(prefs Preferences) string {
	keys := prefs.Keys()
	if len(keys) == 0 {
		return "No settings."
	}
	var sb strings.Builder
	for i, k := range keys {
		v := prefs.GetValue(k)
		sb.WriteString(fmt.Sprintf("%s = %s (%s)", k, v, v.Kind()))
		if i < len(keys)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
