package ai

import (
	"context"

	"github.com/suportedesk/backend/internal/utils"
)

// MockAdapter produces deterministic localized analysis text for
// environments without an inference endpoint. The same prompt always
// yields the same answer.
type MockAdapter struct {
	ModelVersion string
}

var mockResponses = []string{
	`DIAGNÓSTICO: A operação apresenta volume estável de atendimentos, com 2 agentes concentrando a maior parte das escalações da semana. O nível geral de autonomia permanece adequado para o porte da equipe.

PADRÕES:
- Escalações concentradas no início da semana
- Agentes com maior volume repetem dúvidas de procedimento
- Equipes menores mantêm autonomia acima de 70%

RECOMENDAÇÕES:
- Priorizar treinamento dos 2 agentes com maior volume
- Revisar o roteiro de procedimentos mais escalados
- Monitorar a evolução semanal dos agentes em atenção`,
	`DIAGNÓSTICO: O período registrou variação relevante no total de atendimentos em relação à semana anterior, exigindo atenção dos supervisores com equipes em crescimento. Os números indicam dependência pontual e não estrutural.

PADRÕES:
- Crescimento concentrado em uma única equipe
- Dúvidas recorrentes sobre o mesmo tema de classificação
- Agentes autônomos mantiveram volume baixo nas duas semanas

RECOMENDAÇÕES:
- Reservar 30 minutos de acompanhamento com os agentes críticos
- Documentar as respostas das escalações mais frequentes
- Reavaliar a distribuição de demanda entre as equipes`,
	`DIAGNÓSTICO: Semana sem desvios significativos: o volume total segue dentro da banda esperada e nenhuma equipe apresenta concentração anormal de escalações. A operação sustenta o patamar atual de autonomia.

PADRÕES:
- Distribuição equilibrada entre os agentes ativos
- Redução gradual de escalações repetidas
- Supervisores com tempo estratégico preservado

RECOMENDAÇÕES:
- Manter o ritual semanal de feedback por equipe
- Consolidar os materiais de consulta rápida dos agentes
- Acompanhar os agentes recém-chegados nas próximas 2 semanas`,
}

func (m MockAdapter) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	h := utils.HashStringToUint64(prompt)
	return mockResponses[int(h%uint64(len(mockResponses)))], nil
}

func (m MockAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{m.ModelVersion}, nil
}
