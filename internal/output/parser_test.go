package output

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func int64p(v int64) *int64     { return &v }
func floatp(v float64) *float64 { return &v }

// flat is a comparable view of a Record for cmp.Diff.
type flat struct {
	Seed         *int64
	Universe     *int
	Ground       *int
	FCount       *int
	K            *int
	Names        []string
	Results      map[string]AlgorithmResult
	InstanceSets map[string]string
}

func flatten(r *Record) flat {
	f := flat{
		Seed:         r.Seed,
		Universe:     r.UniverseSize,
		Ground:       r.GroundSetSize,
		FCount:       r.CandidateSetCount,
		K:            r.K,
		Names:        r.Algorithms.Names(),
		InstanceSets: r.InstanceSets,
	}
	if r.Algorithms.Len() > 0 {
		f.Results = make(map[string]AlgorithmResult)
		for _, n := range r.Algorithms.Names() {
			res, _ := r.Algorithms.Get(n)
			f.Results[n] = *res
		}
	}
	return f
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want flat
	}{
		{
			name: "single greedy block",
			in:   "Semilla: 7\nU_size: 128\nALGORITMO: greedy\nTIEMPO_MS: 12.5\nNUM_PARETO: 3\nMEJOR_JACCARD: 0.8\n",
			want: flat{
				Seed:     int64p(7),
				Universe: intp(128),
				Names:    []string{"greedy"},
				Results: map[string]AlgorithmResult{
					"greedy": {ElapsedMS: floatp(12.5), ParetoFrontSize: intp(3), BestObjectiveRatio: floatp(0.8)},
				},
			},
		},
		{
			name: "full header and two blocks",
			in: "Semilla: 42\nU_size: 256\nG_size: 10\nF_count: 30\n  k: 4\n" +
				"ALGORITMO: greedy\nTIEMPO_MS: 1\nNUM_PARETO: 2\nMEJOR_JACCARD: 0.5\n" +
				"ALGORITMO: nsga2\nTIEMPO_MS: 900.25\nNUM_PARETO: 17\nMEJOR_JACCARD: 0.75\n",
			want: flat{
				Seed:     int64p(42),
				Universe: intp(256),
				Ground:   intp(10),
				FCount:   intp(30),
				K:        intp(4),
				Names:    []string{"greedy", "nsga2"},
				Results: map[string]AlgorithmResult{
					"greedy": {ElapsedMS: floatp(1), ParetoFrontSize: intp(2), BestObjectiveRatio: floatp(0.5)},
					"nsga2":  {ElapsedMS: floatp(900.25), ParetoFrontSize: intp(17), BestObjectiveRatio: floatp(0.75)},
				},
			},
		},
		{
			name: "instance dump",
			in:   "Semilla: 1\n=== CONJUNTOS ===\nUNIVERSO_U: 1 2 3\nF0: 1 2\n",
			want: flat{
				Seed:         int64p(1),
				InstanceSets: map[string]string{"U": "1 2 3", "F0": "1 2"},
			},
		},
		{
			name: "dump with all keys",
			in:   "=== CONJUNTOS ===\nUNIVERSO_U: 1 2 3 4\nCONJUNTO_G: 2 4\nNUM_CONJUNTOS_F: 2\nF0: 1 2\n  F1 : 3\n",
			want: flat{
				InstanceSets: map[string]string{
					"U": "1 2 3 4", "G": "2 4", "F_count": "2", "F0": "1 2", "F1": "3",
				},
			},
		},
		{
			name: "dump lines before the dump header are ignored",
			in:   "UNIVERSO_U: 9\nF3: 9\n",
			want: flat{},
		},
		{
			name: "metric before any block is ignored",
			in:   "TIEMPO_MS: 5\nALGORITMO: greedy\nNUM_PARETO: 1\n",
			want: flat{
				Names:   []string{"greedy"},
				Results: map[string]AlgorithmResult{"greedy": {ParetoFrontSize: intp(1)}},
			},
		},
		{
			name: "dump closes the open block",
			in:   "ALGORITMO: greedy\n=== CONJUNTOS ===\nTIEMPO_MS: 5\n",
			want: flat{
				Names:        []string{"greedy"},
				Results:      map[string]AlgorithmResult{"greedy": {}},
				InstanceSets: map[string]string{},
			},
		},
		{
			name: "repeated header marker keeps the last value",
			in:   "Semilla: 1\nSemilla: 2\n",
			want: flat{Seed: int64p(2)},
		},
		{
			name: "repeated block name resets metrics and keeps position",
			in: "ALGORITMO: a\nTIEMPO_MS: 1\nALGORITMO: b\nTIEMPO_MS: 2\n" +
				"ALGORITMO: a\nNUM_PARETO: 9\n",
			want: flat{
				Names: []string{"a", "b"},
				Results: map[string]AlgorithmResult{
					"a": {ParetoFrontSize: intp(9)},
					"b": {ElapsedMS: floatp(2)},
				},
			},
		},
		{
			name: "unparseable values stay unknown",
			in:   "Semilla: x\nU_size: 12.0\nALGORITMO: g\nTIEMPO_MS: NaN\nNUM_PARETO: 3.0\nMEJOR_JACCARD: \n",
			want: flat{
				Names:   []string{"g"},
				Results: map[string]AlgorithmResult{"g": {}},
			},
		},
		{
			name: "empty algorithm name",
			in:   "ALGORITMO:\nTIEMPO_MS: 3\n",
			want: flat{
				Names:   []string{LegacyAlgorithm},
				Results: map[string]AlgorithmResult{LegacyAlgorithm: {ElapsedMS: floatp(3)}},
			},
		},
		{
			name: "legacy format",
			in:   "Semilla: 3\nTiempo_ejecucion_ms: 44.5\nNumero_soluciones_pareto: 6\n",
			want: flat{
				Seed:  int64p(3),
				Names: []string{LegacyAlgorithm},
				Results: map[string]AlgorithmResult{
					LegacyAlgorithm: {ElapsedMS: floatp(44.5), ParetoFrontSize: intp(6)},
				},
			},
		},
		{
			name: "legacy marker with unreadable value still yields an entry",
			in:   "Numero_soluciones_pareto: many\n",
			want: flat{
				Names:   []string{LegacyAlgorithm},
				Results: map[string]AlgorithmResult{LegacyAlgorithm: {}},
			},
		},
		{
			name: "legacy markers ignored when blocks exist",
			in:   "Tiempo_ejecucion_ms: 1\nALGORITMO: g\nTIEMPO_MS: 2\n",
			want: flat{
				Names:   []string{"g"},
				Results: map[string]AlgorithmResult{"g": {ElapsedMS: floatp(2)}},
			},
		},
		{
			name: "empty input",
			in:   "",
			want: flat{},
		},
		{
			name: "noise only",
			in:   "Generando instancia...\nListo.\n",
			want: flat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.in, got.Raw)
			if diff := cmp.Diff(tt.want, flatten(got)); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_LegacyFallbackOnlyWithoutBlocks(t *testing.T) {
	inputs := []string{
		"",
		"Tiempo_ejecucion_ms: 1\n",
		"Numero_soluciones_pareto: 2\n",
		"ALGORITMO: g\n",
		"ALGORITMO: g\nTiempo_ejecucion_ms: 1\n",
		"plain text\n",
	}
	for _, in := range inputs {
		rec := Parse(in)
		_, hasLegacy := rec.Algorithms.Get(LegacyAlgorithm)
		blocks := 0
		legacy := 0
		for _, line := range splitLines(in) {
			switch Classify(line) {
			case LineAlgorithm:
				blocks++
			case LineLegacyElapsed, LineLegacyParetoSize:
				legacy++
			}
		}
		assert.Equal(t, blocks == 0 && legacy > 0, hasLegacy, "input %q", in)
	}
}

func TestAlgorithms_MarshalJSON(t *testing.T) {
	rec := Parse("ALGORITMO: z\nTIEMPO_MS: 1.5\nALGORITMO: a\nNUM_PARETO: 2\n")
	data, err := json.Marshal(rec.Algorithms)
	require.NoError(t, err)
	assert.Equal(t,
		`{"z":{"elapsed_ms":1.5,"pareto_front_size":null,"best_objective_ratio":null},`+
			`"a":{"elapsed_ms":null,"pareto_front_size":2,"best_objective_ratio":null}}`,
		string(data))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, Unknown, FormatInt(nil))
	assert.Equal(t, Unknown, FormatInt64(nil))
	assert.Equal(t, Unknown, FormatFloat(nil))
	assert.Equal(t, "0", FormatInt(intp(0)))
	assert.Equal(t, "-3", FormatInt64(int64p(-3)))
	assert.Equal(t, "12.5", FormatFloat(floatp(12.5)))
	assert.Equal(t, "1000000", FormatFloat(floatp(1e6)))
	assert.Equal(t, "0.1", FormatFloat(floatp(0.1)))
}
