// Copyright 2024 userdb authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resource provides utilities for tracking resource lifetimes.
package resource

import (
	"fmt"
	"reflect"
	"runtime"
	runtimedebug "runtime/debug"
	"runtime/pprof"
	"sync"

	"github.com/userdbkit/userdb/internal/util/debugbuild"
)

// Token is a part of the tracked object that keeps the creation stack.
//
// It must be a separate field of the tracked object,
// not the object itself, so the pprof profile does not keep the object alive.
type Token struct {
	stack []byte
}

// NewToken returns a new Token.
func NewToken() *Token {
	var t Token
	if debugbuild.Enabled {
		t.stack = runtimedebug.Stack()
	}

	return &t
}

// profilesM protects access to profiles.
var profilesM sync.Mutex

// profileName returns pprof profile name for the given object.
func profileName(obj any) string {
	return "userdb/" + reflect.TypeOf(obj).Elem().String()
}

// Track tracks the lifetime of an object until Untrack is called on it.
//
// Obj should be a pointer to a struct with a field of type *Token.
// If the object is garbage-collected before Untrack is called,
// the finalizer panics to surface the leak.
func Track[T any](obj *T, token *Token) {
	if obj == nil {
		panic("obj must not be nil")
	}
	if token == nil {
		panic("token must not be nil")
	}

	name := profileName(obj)

	p := pprof.Lookup(name)
	if p == nil {
		profilesM.Lock()

		// a concurrent call might have created a profile already; check again
		if p = pprof.Lookup(name); p == nil {
			p = pprof.NewProfile(name)
		}

		profilesM.Unlock()
	}

	p.Add(token, 1)

	runtime.SetFinalizer(obj, func(obj *T) {
		msg := fmt.Sprintf("%T has not been finalized", obj)
		if token.stack != nil {
			msg += "\nObject created by " + string(token.stack)
		}

		panic(msg)
	})
}

// Untrack stops tracking the lifetime of an object.
func Untrack[T any](obj *T, token *Token) {
	if obj == nil {
		panic("obj must not be nil")
	}
	if token == nil {
		panic("token must not be nil")
	}

	p := pprof.Lookup(profileName(obj))
	if p == nil {
		panic("profile not found")
	}

	p.Remove(token)

	runtime.SetFinalizer(obj, nil)
}
