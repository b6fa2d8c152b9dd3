//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"
	"time"

	"github.com/kittclouds/labkit/pkg/auth"
	"github.com/kittclouds/labkit/pkg/kvstore"
)

// =============================================================================
// Auth API
// =============================================================================

// authInit creates the provider, the session and the login flow.
// Args: [options object] (optional)
//
//	sendCode(phone, code)  delivers OTP codes; may return a Promise
//	googleSignIn()         returns (a Promise of) a user object or JSON string
//	codeTTLSeconds         OTP lifetime, default 300
func authInit(this js.Value, args []js.Value) interface{} {
	if session != nil {
		session.Close()
	}

	var opts []auth.MemoryOption
	var options js.Value
	if len(args) > 0 && args[0].Type() == js.TypeObject {
		options = args[0]
	}

	if options.Truthy() {
		if fn := options.Get("sendCode"); fn.Type() == js.TypeFunction {
			opts = append(opts, auth.WithCodeSender(func(ctx context.Context, phone, code string) error {
				_, err := await(fn.Invoke(phone, code))
				return err
			}))
		}
		if fn := options.Get("googleSignIn"); fn.Type() == js.TypeFunction {
			opts = append(opts, auth.WithGoogle(func(ctx context.Context) (*auth.User, error) {
				v, err := await(fn.Invoke())
				if err != nil {
					return nil, err
				}
				return decodeUser(v)
			}))
		}
		if ttl := options.Get("codeTTLSeconds"); ttl.Type() == js.TypeNumber {
			opts = append(opts, auth.WithCodeTTL(time.Duration(ttl.Int())*time.Second))
		}
	}
	opts = append(opts, auth.WithProviderLogger(logger.Named("auth")))

	provider = auth.NewMemoryProvider(opts...)
	session = auth.NewSession(provider, logger.Named("session"))

	var storage kvstore.Storage = kvstore.NewMemory()
	if localStore != nil {
		storage = localStore
	}
	login = auth.NewLogin(provider, storage)

	fmt.Println("[Labkit] ✅ Auth initialized")
	return successResult("auth initialized")
}

// authRegister creates an email/password account.
// Args: [email, password, displayName string]
// Returns: Promise<User JSON>
func authRegister(this js.Value, args []js.Value) interface{} {
	email, password, name := argString(args, 0), argString(args, 1), argString(args, 2)
	return async(func() (interface{}, error) {
		if provider == nil {
			return nil, errAuthNotInitialized
		}
		u, err := provider.Register(email, password, name)
		if err != nil {
			return nil, err
		}
		return jsonResult(u), nil
	}, errMessage)
}

// authLoginEmail signs in with email and password.
// Args: [email, password string]
// Returns: Promise<User JSON>
func authLoginEmail(this js.Value, args []js.Value) interface{} {
	email, password := argString(args, 0), argString(args, 1)
	return async(func() (interface{}, error) {
		if login == nil {
			return nil, errAuthNotInitialized
		}
		u, err := login.Email(context.Background(), email, password)
		if err != nil {
			return nil, err
		}
		return jsonResult(u), nil
	}, errMessage)
}

// authLoginGoogle signs in through options.googleSignIn.
// Returns: Promise<User JSON>
func authLoginGoogle(this js.Value, args []js.Value) interface{} {
	return async(func() (interface{}, error) {
		if login == nil {
			return nil, errAuthNotInitialized
		}
		u, err := login.Google(context.Background())
		if err != nil {
			return nil, err
		}
		return jsonResult(u), nil
	}, errMessage)
}

// authStartPhone sends an OTP code and stores the verification id.
// Args: [phoneE164 string]
// Returns: Promise<success JSON>
func authStartPhone(this js.Value, args []js.Value) interface{} {
	phone := argString(args, 0)
	return async(func() (interface{}, error) {
		if login == nil {
			return nil, errAuthNotInitialized
		}
		if err := login.StartPhone(context.Background(), phone); err != nil {
			return nil, err
		}
		return successResult("code sent to " + login.Phone()), nil
	}, errMessage)
}

// authConfirmPhone checks the OTP code against the stored verification id.
// Args: [code string]
// Returns: Promise<User JSON>
func authConfirmPhone(this js.Value, args []js.Value) interface{} {
	code := argString(args, 0)
	return async(func() (interface{}, error) {
		if login == nil {
			return nil, errAuthNotInitialized
		}
		u, err := login.ConfirmPhone(context.Background(), code)
		if err != nil {
			return nil, err
		}
		return jsonResult(u), nil
	}, errMessage)
}

// authLogout signs out.
// Returns: Promise<bool>
func authLogout(this js.Value, args []js.Value) interface{} {
	return async(func() (interface{}, error) {
		if session == nil {
			return nil, errAuthNotInitialized
		}
		return session.Logout(context.Background()), nil
	}, errMessage)
}

// authState returns the session state plus the login step.
// Returns: {"user":..., "loading":..., "error":..., "isAuthenticated":..., "step":..., "loginError":...}
func authState(this js.Value, args []js.Value) interface{} {
	if session == nil {
		return errorResult(errAuthNotInitialized.Error())
	}
	return jsonResult(struct {
		auth.State
		Step       auth.Step `json:"step"`
		LoginError string    `json:"loginError"`
	}{session.State(), login.Step(), login.Err()})
}

// authOnChange calls back with the user JSON (or "null") on every change.
// Args: [callback function(userJSON string)]
// Returns: unsubscribe function
func authOnChange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorResult("authOnChange requires 1 arg: callback")
	}
	if provider == nil {
		return errorResult(errAuthNotInitialized.Error())
	}

	callback := args[0]
	cancel := provider.OnAuthStateChanged(func(u *auth.User) {
		callback.Invoke(jsonResult(u))
	})

	var unsubscribe js.Func
	unsubscribe = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cancel()
		unsubscribe.Release()
		return nil
	})
	return unsubscribe
}

// authStep moves the login flow between screens.
// Args: ["email" | "phone" | "methods"]
// Returns: current step
func authStep(this js.Value, args []js.Value) interface{} {
	if login == nil {
		return errorResult(errAuthNotInitialized.Error())
	}
	switch auth.Step(argString(args, 0)) {
	case auth.StepEmail:
		login.ChooseEmail()
	case auth.StepPhone:
		login.ChoosePhone()
	case auth.StepMethods:
		login.Back()
	}
	return string(login.Step())
}

var errAuthNotInitialized = errors.New("auth not initialized")

func errMessage(err error) string {
	return err.Error()
}

// decodeUser accepts a JSON string or a plain object.
func decodeUser(v js.Value) (*auth.User, error) {
	raw := ""
	switch v.Type() {
	case js.TypeString:
		raw = v.String()
	case js.TypeObject:
		raw = js.Global().Get("JSON").Call("stringify", v).String()
	default:
		return nil, errors.New("google sign-in returned no user")
	}

	var u auth.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}
	return &u, nil
}
