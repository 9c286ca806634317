//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/vincentbai/monotrack/internal/bridge"
	"github.com/vincentbai/monotrack/internal/dom/jsdom"
)

// exports builds the window.monotrack object.
func exports(api *bridge.API) map[string]interface{} {
	return map[string]interface{}{
		"initialize": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return api.Initialize()
		}),
		"addObject": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return toJS(api.AddObject(arg(args, 0), arg(args, 1), arg(args, 2)))
		}),
		"addTracker": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return api.AddTracker(arg(args, 0))
		}),
		"track": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return api.Track(arg(args, 0))
		}),
		"setData": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			// Values are kept as JS handles so getData hands back the same object.
			var value js.Value = js.Undefined()
			if len(args) > 1 {
				value = args[1]
			}
			return api.SetData(arg(args, 0), value)
		}),
		"getData": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return toJS(api.GetData(arg(args, 0)))
		}),
		"detectCallTracking": js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return toJS(api.DetectCallTracking(arg(args, 0), arg(args, 1)))
		}),
	}
}

// arg converts a JS argument into the Go value bridge expects: strings,
// numbers and booleans become their Go types, functions become
// func(string), DOM elements become jsdom elements, and null or a missing
// argument becomes nil.
func arg(args []js.Value, i int) interface{} {
	if i >= len(args) {
		return nil
	}
	v := args[i]
	switch v.Type() {
	case js.TypeUndefined, js.TypeNull:
		return nil
	case js.TypeString:
		return v.String()
	case js.TypeNumber:
		return v.Float()
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeFunction:
		return func(action string) { v.Invoke(action) }
	case js.TypeObject:
		if v.InstanceOf(js.Global().Get("Element")) {
			return jsdom.Wrap(v)
		}
	}
	return v
}

func toJS(v interface{}) interface{} {
	switch x := v.(type) {
	case *jsdom.Element:
		return x.Value()
	case js.Value, bool, string, float64, nil:
		return x
	default:
		return js.ValueOf(x)
	}
}
