package kernels

import "testing"

func TestIntegrateStepAppliesEulerUpdate(t *testing.T) {
	v := []float32{0}
	ge := []float32{1}
	gf := []float32{2}
	gate := []float32{1}
	tm := []float32{1}
	tf := []float32{4}

	IntegrateStep(v, ge, gf, gate, tm, tf, 0.1)

	wantV := float32(0) + 0.1*(1+1*2)/1
	if v[0] != wantV {
		t.Errorf("v[0] = %v, want %v", v[0], wantV)
	}
	wantGf := float32(2) + 0.1*(-2.0/4.0)
	if gf[0] != wantGf {
		t.Errorf("gf[0] = %v, want %v", gf[0], wantGf)
	}
}

func TestIntegrateStepLeavesGeAndGateUntouched(t *testing.T) {
	v := []float32{0, 0}
	ge := []float32{3, -1}
	gf := []float32{0, 0}
	gate := []float32{1, 0}
	tm := []float32{1, 1}
	tf := []float32{1, 1}

	IntegrateStep(v, ge, gf, gate, tm, tf, 0.01)

	if ge[0] != 3 || ge[1] != -1 {
		t.Errorf("ge mutated: %v", ge)
	}
	if gate[0] != 1 || gate[1] != 0 {
		t.Errorf("gate mutated: %v", gate)
	}
}

func TestThresholdResetFiresAndZeroesState(t *testing.T) {
	v := []float32{1.5, 0.2}
	ge := []float32{5, 5}
	gf := []float32{5, 5}
	gate := []float32{1, 1}
	vt := []float32{1.0, 1.0}
	spiked := make([]bool, 2)

	ThresholdReset(v, ge, gf, gate, vt, spiked)

	if !spiked[0] {
		t.Error("spiked[0] should be true (V >= Vt)")
	}
	if spiked[1] {
		t.Error("spiked[1] should be false (V < Vt)")
	}
	if v[0] != 0 || ge[0] != 0 || gf[0] != 0 || gate[0] != 0 {
		t.Errorf("spiking neuron's state not fully reset: V=%v ge=%v gf=%v gate=%v", v[0], ge[0], gf[0], gate[0])
	}
	if v[1] != 0.2 {
		t.Errorf("non-spiking neuron's V changed: %v, want 0.2", v[1])
	}
}

func TestThresholdResetOverwritesStaleSpikedFlags(t *testing.T) {
	v := []float32{0}
	ge, gf, gate, vt := []float32{0}, []float32{0}, []float32{0}, []float32{1}
	spiked := []bool{true} // stale true from a previous step
	ThresholdReset(v, ge, gf, gate, vt, spiked)
	if spiked[0] {
		t.Error("stale spiked flag should be cleared when V < Vt")
	}
}

func TestDivergedDetectsNaNAndInf(t *testing.T) {
	if Diverged([]float32{0, 1, 2}) {
		t.Error("finite voltages reported as diverged")
	}
	one, zero := float32(1), float32(0)
	inf := one / zero
	if !Diverged([]float32{0, inf}) {
		t.Error("+Inf voltage not detected as diverged")
	}
	nan := zero / zero
	if !Diverged([]float32{nan}) {
		t.Error("NaN voltage not detected as diverged")
	}
}

func TestIntegrateStepUnrolledMatchesScalarLoop(t *testing.T) {
	n := 11 // not a multiple of 4, exercises both the unrolled and tail paths
	v1 := make([]float32, n)
	v2 := make([]float32, n)
	ge := make([]float32, n)
	gf1 := make([]float32, n)
	gf2 := make([]float32, n)
	gate := make([]float32, n)
	tm := make([]float32, n)
	tf := make([]float32, n)
	for i := 0; i < n; i++ {
		ge[i] = float32(i) * 0.1
		gf1[i] = 1.0
		gf2[i] = 1.0
		gate[i] = 1.0
		tm[i] = 0.01
		tf[i] = 0.02
	}

	IntegrateStep(v1, ge, gf1, gate, tm, tf, 0.001)
	IntegrateStepUnrolled(v2, ge, gf2, gate, tm, tf, 0.001)

	for i := 0; i < n; i++ {
		if v1[i] != v2[i] {
			t.Errorf("v[%d]: scalar=%v unrolled=%v", i, v1[i], v2[i])
		}
		if gf1[i] != gf2[i] {
			t.Errorf("gf[%d]: scalar=%v unrolled=%v", i, gf1[i], gf2[i])
		}
	}
}

func TestBatchSizePositive(t *testing.T) {
	if BatchSize() <= 0 {
		t.Errorf("BatchSize() = %d, want > 0", BatchSize())
	}
}
