package render

import "html/template"

var rowFuncs = template.FuncMap{
	"formatSize":   FormatSize,
	"historyClass": HistoryStatusClass,
	"recentClass":  RecentScanBadgeClass,
	"alertClass":   ScanResultAlertClass,
	"deletePrompt": DeletePrompt,
}

var rowTemplates = template.Must(template.New("rows").Funcs(rowFuncs).Parse(`
{{- define "placeholder" -}}
<tr><td colspan="{{.Colspan}}" class="text-center">{{.Message}}</td></tr>
{{- end -}}

{{- define "history" -}}
<tr><td>{{.Timestamp}}</td><td>{{.FilePath}}</td><td class="{{historyClass .Status}}">{{.Status}}</td><td>{{.Action}}</td></tr>
{{- end -}}

{{- define "quarantine" -}}
<tr><td>{{.Name}}</td><td>{{formatSize .SizeBytes}}</td><td>{{.QuarantinedAt}}</td><td>
<form method="post" action="/actions/delete-quarantine-item" onsubmit="return confirm({{deletePrompt .Name}})">
<input type="hidden" name="name" value="{{.Name}}"><input type="hidden" name="confirm" value="yes">
<button type="submit" class="btn btn-sm btn-danger">Supprimer</button></form></td></tr>
{{- end -}}

{{- define "recent" -}}
<tr><td>{{.FileName}}</td><td>{{.Timestamp}}</td><td>{{.PrimaryEngineResult}}</td><td>{{.SecondaryEngineResult}}</td><td><span class="{{recentClass .Status}}">{{.Status}}</span></td><td><a href="#" class="view-details" data-id="{{.ID}}"><i class="fas fa-eye"></i></a></td></tr>
{{- end -}}

{{- define "scan-result" -}}
<div class="{{alertClass .Status}}"><strong>Résultat de l'analyse:</strong> {{.Status}}<br><strong>Action:</strong> {{.Action}}<br>{{if .Error}}<strong>Erreur:</strong> {{.Error}}{{end}}</div>
{{- end -}}
`))
