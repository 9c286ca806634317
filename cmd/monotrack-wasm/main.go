//go:build js && wasm

// Command monotrack-wasm is the in-page tracker. Load it with wasm_exec.js;
// it exposes window.monotrack and initializes itself once the document is
// parsed. Optional settings are read from window.monotrackConfig:
//
//	endpoint      agent URL that receives one beacon per action
//	cookieMaxAge  CTN cookie lifetime in seconds
//	cookiePath    CTN cookie path
//	manual        when true, the page calls monotrack.initialize() itself
//	debug         log rejected calls to the console
package main

import (
	"io"
	"log"
	"os"
	"syscall/js"
	"time"

	"github.com/vincentbai/monotrack/internal/bridge"
	"github.com/vincentbai/monotrack/internal/ctn"
	"github.com/vincentbai/monotrack/internal/dom/jsdom"
	"github.com/vincentbai/monotrack/internal/tracker"
)

func main() {
	settings := js.Global().Get("monotrackConfig")

	logger := log.New(io.Discard, "", 0)
	if boolSetting(settings, "debug") {
		logger = log.New(os.Stderr, "[monotrack] ", 0)
	}

	doc := jsdom.New()
	t := tracker.New(doc,
		tracker.WithCookieOptions(cookieOptions(settings)),
		tracker.WithLogger(logger),
	)
	api := bridge.New(t, logger)

	t.AddTracker(googleAnalytics)
	if endpoint := stringSetting(settings, "endpoint"); endpoint != "" {
		t.AddTracker(sendBeacon(t, endpoint))
	}

	js.Global().Set("monotrack", exports(api))

	if !boolSetting(settings, "manual") {
		whenReady(func() { api.Initialize() })
	}
	js.Global().Get("window").Call("addEventListener", "pagehide", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		persisted := len(args) > 0 && args[0].Get("persisted").Truthy()
		api.PageHide(persisted)
		return nil
	}))

	select {}
}

func whenReady(fn func()) {
	document := js.Global().Get("document")
	if document.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn()
		cb.Release()
		return nil
	})
	document.Call("addEventListener", "DOMContentLoaded", cb, map[string]interface{}{"once": true})
}

func cookieOptions(settings js.Value) ctn.CookieOptions {
	var opts ctn.CookieOptions
	if isSet(settings) {
		if v := settings.Get("cookieMaxAge"); v.Type() == js.TypeNumber {
			opts.MaxAge = time.Duration(v.Float() * float64(time.Second))
		}
		opts.Path = stringSetting(settings, "cookiePath")
	}
	return opts
}

func isSet(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

func stringSetting(settings js.Value, key string) string {
	if !isSet(settings) {
		return ""
	}
	if v := settings.Get(key); v.Type() == js.TypeString {
		return v.String()
	}
	return ""
}

func boolSetting(settings js.Value, key string) bool {
	return isSet(settings) && settings.Get(key).Truthy()
}
