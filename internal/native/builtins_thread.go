/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

package native

import (
	"time"

	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/vmerr"
)

// loadLangThread installs java/lang/Thread's natives, grounded
// directly on artipop-jacobin's gfunction.Load_Lang_Thread.
func loadLangThread(r *Registry) {
	r.registerBuiltin("java/lang/Thread", "registerNatives", "()V", justReturn)
	r.registerBuiltin("java/lang/Thread", "sleep", "(J)V", threadSleep)
	r.registerBuiltin("java/lang/Thread", "currentThread", "()Ljava/lang/Thread;", threadCurrentThread)
	r.registerBuiltin("java/lang/Thread", "isAlive", "()Z", threadIsAlive)
}

// threadSleep blocks the calling goroutine for the given number of
// milliseconds; rsvm runs one goroutine per attached VM thread, so a
// real Sleep is a correct implementation rather than a scheduler hint.
func threadSleep(env interface{}, args []object.Slot) (object.Slot, error) {
	if len(args) == 0 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "sleep: missing duration")
	}
	ms := int64(args[0].Raw)
	if ms < 0 {
		return object.Slot{}, vmerr.New(vmerr.ArithmeticError, "sleep: negative duration")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return object.Slot{}, nil
}

// threadCurrentThread has no managed Thread instance to hand back
// until the interpreter attaches one to every thread.Thread at
// startup; until then this returns null rather than panicking, so
// code paths that merely call Thread.currentThread().getId() in a
// best-effort diagnostic don't crash the whole VM.
func threadCurrentThread(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{}, nil
}

func threadIsAlive(env interface{}, args []object.Slot) (object.Slot, error) {
	return object.Slot{Raw: 1}, nil
}
