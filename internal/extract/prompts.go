package extract

const extractionPrompt = `You are a clinical data extraction AI. Extract structured medical information from this patient's voice report.

Patient transcript:
"%s"

Extract and return a JSON object with the following structure (be precise and only include information explicitly mentioned):

{
  "medications_taken": [
    {"name": "medication name", "time": "HH:MM or descriptive time", "dose": "dosage if mentioned", "type": "trial_medication or concomitant"}
  ],
  "symptoms": [
    {"name": "symptom name", "severity": "mild/moderate/severe or number/10", "onset_time": "time if mentioned", "duration": "duration if mentioned", "resolved": true/false}
  ],
  "side_effects": [
    {"symptom": "symptom name", "relation_to_drug": "possible/probable/unlikely", "timing": "timing relative to medication"}
  ],
  "quality_of_life": {
    "energy_level": "good/normal/low/poor or description",
    "work_capacity": "normal/impaired/unable or description",
    "functioning": "description of daily activities"
  },
  "adherence_status": "compliant/non-compliant/partial",
  "clinical_summary": "A brief clinical note summarizing the report in 1-2 sentences"
}

Important rules:
- Only extract information that is EXPLICITLY stated in the transcript
- If a field is not mentioned, use null or omit it
- For severity, extract the exact scale used (e.g., "4/10" or "mild")
- For times, preserve the format mentioned (e.g., "8 AM", "around 10 o'clock")
- Side effects should only be listed if there's a temporal relationship to medication
- Be conservative - don't infer information not clearly stated

Return ONLY the JSON object, no other text.`
