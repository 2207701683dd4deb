package main

import (
	"errors"
	"os"
	"runtime"
	"runtime/pprof"
)

type profiler struct {
	cpu *os.File
	mem string
}

func startProfiles(cpuPath, memPath string) (*profiler, error) {
	p := &profiler{mem: memPath}
	if cpuPath == "" {
		return p, nil
	}
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	p.cpu = f
	return p, nil
}

// stop ends the CPU profile and writes the heap profile, if requested.
func (p *profiler) stop() error {
	var errs []error
	if p.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, p.cpu.Close())
		p.cpu = nil
	}
	if p.mem != "" {
		f, err := os.Create(p.mem)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		runtime.GC()
		errs = append(errs, pprof.WriteHeapProfile(f), f.Close())
		p.mem = ""
	}
	return errors.Join(errs...)
}
